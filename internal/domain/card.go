package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Card is a column on a board grouping tasks.
type Card struct {
	ID          uuid.UUID
	BoardID     uuid.UUID
	Name        string
	Description string
	Members     []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CardRepository interface {
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Card, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Card, error)
	ListByBoardMember(ctx context.Context, boardID, userID uuid.UUID) ([]*Card, error)
	Update(ctx context.Context, c *Card) error

	// SetMembers replaces the card's member set.
	SetMembers(ctx context.Context, cardID uuid.UUID, members []uuid.UUID) error

	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
