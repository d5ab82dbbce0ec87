package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

// ValidTransition checks whether an invitation may move to the given status.
// Accepted and declined are terminal.
func (s InvitationStatus) ValidTransition(to InvitationStatus) bool {
	if s != InvitationStatusPending {
		return false
	}
	return to == InvitationStatusAccepted || to == InvitationStatusDeclined
}

// Invitation is keyed by invitee email; the invitee's user id is resolved
// when they respond, not when the invitation is created.
type Invitation struct {
	ID           uuid.UUID
	BoardID      uuid.UUID
	InviterID    uuid.UUID
	InviteeEmail string
	Status       InvitationStatus
	CreatedAt    time.Time

	// BoardName is joined in at read time for pending listings. Empty unless
	// the repository populated it.
	BoardName string
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*Invitation, error)

	// UpdateStatus transitions the invitation from one status to another as a
	// compare-and-set. Returns ErrConflict when the current status is not
	// `from`, so two concurrent responders cannot both win.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to InvitationStatus) error
}
