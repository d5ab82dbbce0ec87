package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCode     = errors.New("auth: invalid email or verification code")
	ErrCodeExpired     = errors.New("auth: verification code expired")
	ErrNotVerified     = errors.New("auth: account not verified")
	ErrMailUnavailable = errors.New("auth: could not send verification mail")
)

// CodeMailer delivers verification codes. The gomail-backed mailer and the
// development log mailer both satisfy this interface.
type CodeMailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// Service implements passwordless authentication: a six-digit code is mailed
// to the user, a matching signup marks the account verified, and a matching
// signin yields a bearer token.
type Service struct {
	users     domain.UserRepository
	mailer    CodeMailer
	jwtSecret string
	accessTTL time.Duration
	codeTTL   time.Duration
}

func NewService(users domain.UserRepository, mailer CodeMailer, jwtSecret string, accessTTL, codeTTL time.Duration) *Service {
	return &Service{
		users:     users,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		accessTTL: accessTTL,
		codeTTL:   codeTTL,
	}
}

// SendCode creates the user on first contact and rotates their verification
// code. The code itself only leaves the process inside the email.
func (s *Service) SendCode(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("auth.SendCode: %w", err)
	}

	hash, err := hashCode(code)
	if err != nil {
		return fmt.Errorf("auth.SendCode: %w", err)
	}

	now := time.Now()

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		user = &domain.User{
			ID:           uuid.New(),
			Email:        email,
			CodeHash:     hash,
			CodeIssuedAt: now,
			Verified:     false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if createErr := s.users.Create(ctx, user); createErr != nil {
			return fmt.Errorf("auth.SendCode: %w", createErr)
		}
	case err != nil:
		return fmt.Errorf("auth.SendCode: %w", err)
	default:
		if setErr := s.users.SetVerificationCode(ctx, user.ID, hash, now); setErr != nil {
			return fmt.Errorf("auth.SendCode: %w", setErr)
		}
	}

	if mailErr := s.mailer.SendVerificationCode(ctx, email, code); mailErr != nil {
		return fmt.Errorf("auth.SendCode: %v: %w", mailErr, ErrMailUnavailable)
	}

	return nil
}

// Signup verifies the emailed code and marks the account verified.
func (s *Service) Signup(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.checkCode(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("auth.Signup: %w", err)
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("auth.Signup: %w", err)
	}
	user.Verified = true

	return user, nil
}

// Signin verifies the emailed code against a verified account and issues an
// access token.
func (s *Service) Signin(ctx context.Context, email, code string) (string, error) {
	user, err := s.checkCode(ctx, email, code)
	if err != nil {
		return "", fmt.Errorf("auth.Signin: %w", err)
	}

	if !user.Verified {
		return "", fmt.Errorf("auth.Signin: %w", ErrNotVerified)
	}

	token, err := IssueAccessToken(s.jwtSecret, user.ID, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.Signin: %w", err)
	}

	return token, nil
}

// TokenFor issues an access token for an already-authenticated user, used by
// the OAuth sign-in path.
func (s *Service) TokenFor(userID uuid.UUID) (string, error) {
	token, err := IssueAccessToken(s.jwtSecret, userID, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.TokenFor: %w", err)
	}
	return token, nil
}

func (s *Service) checkCode(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if user.CodeHash == "" || !verifyCode(code, user.CodeHash) {
		return nil, ErrInvalidCode
	}

	if s.codeTTL > 0 && time.Since(user.CodeIssuedAt) > s.codeTTL {
		return nil, ErrCodeExpired
	}

	return user, nil
}
