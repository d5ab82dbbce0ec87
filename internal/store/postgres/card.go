package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corkboard/corkboard/internal/domain"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cards (id, board_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.BoardID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, name, description, created_at, updated_at
		 FROM cards WHERE board_id = $1 AND id = $2`,
		boardID, id,
	).Scan(&c.ID, &c.BoardID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}

	members, err := r.cardMembers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}
	c.Members = members

	return &c, nil
}

func (r *CardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, name, description, created_at, updated_at
		 FROM cards WHERE board_id = $1 ORDER BY created_at`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	return r.scanCards(ctx, rows, "cardRepo.ListByBoard")
}

func (r *CardRepo) ListByBoardMember(ctx context.Context, boardID, userID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.board_id, c.name, c.description, c.created_at, c.updated_at
		 FROM cards c
		 JOIN card_members cm ON cm.card_id = c.id
		 WHERE c.board_id = $1 AND cm.user_id = $2
		 ORDER BY c.created_at`,
		boardID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByBoardMember: %w", err)
	}
	defer rows.Close()

	return r.scanCards(ctx, rows, "cardRepo.ListByBoardMember")
}

func (r *CardRepo) Update(ctx context.Context, c *domain.Card) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET name = $3, description = $4, updated_at = $5
		 WHERE board_id = $1 AND id = $2`,
		c.BoardID, c.ID, c.Name, c.Description, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CardRepo) SetMembers(ctx context.Context, cardID uuid.UUID, members []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cardRepo.SetMembers: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM card_members WHERE card_id = $1`, cardID); err != nil {
		return fmt.Errorf("cardRepo.SetMembers: %w", err)
	}
	for _, m := range members {
		if _, err = tx.Exec(ctx,
			`INSERT INTO card_members (card_id, user_id) VALUES ($1, $2)
			 ON CONFLICT (card_id, user_id) DO NOTHING`,
			cardID, m,
		); err != nil {
			return fmt.Errorf("cardRepo.SetMembers: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("cardRepo.SetMembers: commit: %w", err)
	}

	return nil
}

func (r *CardRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cards WHERE board_id = $1 AND id = $2`, boardID, id)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CardRepo) scanCards(ctx context.Context, rows pgx.Rows, op string) ([]*domain.Card, error) {
	cards := make([]*domain.Card, 0)
	for rows.Next() {
		var c domain.Card
		scanErr := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, scanErr)
		}
		cards = append(cards, &c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}
	rows.Close()

	for _, c := range cards {
		members, err := r.cardMembers(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Members = members
	}

	return cards, nil
}

func (r *CardRepo) cardMembers(ctx context.Context, cardID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM card_members WHERE card_id = $1`, cardID)
	if err != nil {
		return nil, fmt.Errorf("cardMembers: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("cardMembers: scan: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("cardMembers: %w", rows.Err())
	}

	return ids, nil
}
