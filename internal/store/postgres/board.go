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

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boards (id, name, description, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.Name, b.Description, b.OwnerID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}

	// The owner is a member from the first moment the board exists.
	for _, m := range b.Members {
		if addErr := r.AddMember(ctx, b.ID, m); addErr != nil {
			return fmt.Errorf("boardRepo.Create: %w", addErr)
		}
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at
		 FROM boards WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	members, err := r.members(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}
	b.Members = members

	return &b, nil
}

func (r *BoardRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.name, b.description, b.owner_id, b.created_at, b.updated_at
		 FROM boards b
		 JOIN board_members bm ON bm.board_id = b.id
		 WHERE bm.user_id = $1
		 ORDER BY b.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListByMember: %w", err)
	}
	defer rows.Close()

	boards := make([]*domain.Board, 0)
	for rows.Next() {
		var b domain.Board
		scanErr := rows.Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
		if scanErr != nil {
			return nil, fmt.Errorf("boardRepo.ListByMember: scan: %w", scanErr)
		}
		boards = append(boards, &b)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("boardRepo.ListByMember: %w", rows.Err())
	}

	for _, b := range boards {
		members, mErr := r.members(ctx, b.ID)
		if mErr != nil {
			return nil, fmt.Errorf("boardRepo.ListByMember: %w", mErr)
		}
		b.Members = members
	}

	return boards, nil
}

func (r *BoardRepo) Update(ctx context.Context, b *domain.Board) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE boards SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		b.ID, b.Name, b.Description, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BoardRepo) AddMember(ctx context.Context, boardID, userID uuid.UUID) error {
	// ON CONFLICT DO NOTHING makes repeated adds idempotent, which the
	// invitation accept path relies on when it retries.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_members (board_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (board_id, user_id) DO NOTHING`,
		boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.AddMember: %w", err)
	}

	return nil
}

func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BoardRepo) members(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM board_members WHERE board_id = $1 ORDER BY added_at`, boardID)
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("members: scan: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("members: %w", rows.Err())
	}

	return ids, nil
}
