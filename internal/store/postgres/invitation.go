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

type InvitationRepo struct {
	pool *pgxpool.Pool
}

func NewInvitationRepo(pool *pgxpool.Pool) *InvitationRepo {
	return &InvitationRepo{pool: pool}
}

func (r *InvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invitations (id, board_id, inviter_id, invitee_email, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, inv.BoardID, inv.InviterID, inv.InviteeEmail, inv.Status, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("invitationRepo.Create: %w", err)
	}

	return nil
}

func (r *InvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	var inv domain.Invitation

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, inviter_id, invitee_email, status, created_at
		 FROM invitations WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.BoardID, &inv.InviterID, &inv.InviteeEmail, &inv.Status, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invitationRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.GetByID: %w", err)
	}

	return &inv, nil
}

// ListPendingByEmail joins the board name in at read time. A LEFT JOIN keeps
// invitations whose board has since been deleted; the ledger substitutes a
// placeholder name for those.
func (r *InvitationRepo) ListPendingByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.board_id, i.inviter_id, i.invitee_email, i.status, i.created_at,
		        COALESCE(b.name, '')
		 FROM invitations i
		 LEFT JOIN boards b ON b.id = i.board_id
		 WHERE lower(i.invitee_email) = lower($1) AND i.status = $2
		 ORDER BY i.created_at`,
		email, domain.InvitationStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.ListPendingByEmail: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Invitation, 0)
	for rows.Next() {
		var inv domain.Invitation
		scanErr := rows.Scan(
			&inv.ID, &inv.BoardID, &inv.InviterID, &inv.InviteeEmail,
			&inv.Status, &inv.CreatedAt, &inv.BoardName,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("invitationRepo.ListPendingByEmail: scan: %w", scanErr)
		}
		out = append(out, &inv)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("invitationRepo.ListPendingByEmail: %w", rows.Err())
	}

	return out, nil
}

// UpdateStatus is the compare-and-set the respond path depends on: the row
// only changes when its current status equals `from`. Zero rows affected on
// an existing invitation means someone else transitioned it first.
func (r *InvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.InvitationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invitations SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("invitationRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invitations WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("invitationRepo.UpdateStatus: %w", err)
	}
	if !exists {
		return fmt.Errorf("invitationRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return fmt.Errorf("invitationRepo.UpdateStatus: %w", domain.ErrConflict)
}
