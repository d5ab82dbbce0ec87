package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Boards() domain.BoardRepository
	Cards() domain.CardRepository
	Tasks() domain.TaskRepository
	Invitations() domain.InvitationRepository
}

// AuthService abstracts the email code flow for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	SendCode(ctx context.Context, email string) error
	Signup(ctx context.Context, email, code string) (*domain.User, error)
	Signin(ctx context.Context, email, code string) (string, error)
}

// GitHubAuthenticator abstracts the OAuth sign-in path for handler testing.
// *auth.GitHubAuth satisfies this interface.
type GitHubAuthenticator interface {
	Signin(ctx context.Context, code string) (string, error)
}

// MembershipLedger abstracts the invitation lifecycle for handler testing.
// *membership.Ledger satisfies this interface.
type MembershipLedger interface {
	Invite(ctx context.Context, boardID, inviterID uuid.UUID, inviteeEmail string) (*domain.Invitation, error)
	Respond(ctx context.Context, invitationID, responderID uuid.UUID, decision domain.InvitationStatus) error
	ListPendingFor(ctx context.Context, email string) ([]*domain.Invitation, error)
	Members(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error)
}
