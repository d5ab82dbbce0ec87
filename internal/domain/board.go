package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Board is the top-level collaboration unit. The owner is always present in
// Members; AddMember keeps that set free of duplicates.
type Board struct {
	ID          uuid.UUID
	Name        string
	Description string
	OwnerID     uuid.UUID
	Members     []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Board) HasMember(userID uuid.UUID) bool {
	if b.OwnerID == userID {
		return true
	}
	for _, m := range b.Members {
		if m == userID {
			return true
		}
	}
	return false
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	ListByMember(ctx context.Context, userID uuid.UUID) ([]*Board, error)
	Update(ctx context.Context, b *Board) error

	// AddMember adds userID to the board's member set. Adding an existing
	// member is a no-op, not an error.
	AddMember(ctx context.Context, boardID, userID uuid.UUID) error

	// Delete removes the board and, through store-level cascades, all of its
	// cards, tasks, assignments and invitations.
	Delete(ctx context.Context, id uuid.UUID) error
}
