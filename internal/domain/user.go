package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	CodeHash     string // argon2id hash of the last emailed verification code
	CodeIssuedAt time.Time
	Verified     bool // flips true on first successful signup
	GitHubLogin  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error

	// SetVerificationCode rotates the stored code hash for a user.
	SetVerificationCode(ctx context.Context, id uuid.UUID, codeHash string, issuedAt time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID) error

	// GetByIDs resolves a set of user ids. Ids with no matching user are
	// dropped from the result rather than reported as errors.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
}
