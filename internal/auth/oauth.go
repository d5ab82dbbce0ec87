package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/corkboard/corkboard/internal/domain"
)

// ErrOAuthFailed is returned when the GitHub code exchange or profile fetch
// fails.
var ErrOAuthFailed = errors.New("auth: github oauth failed")

const githubUserInfoURL = "https://api.github.com/user"

// GitHubProvider exchanges GitHub authorization codes for user identities.
type GitHubProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGitHubProvider(clientID, clientSecret string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		userInfoURL: githubUserInfoURL,
	}
}

type githubProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

// Exchange trades an authorization code for the GitHub profile behind it.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*githubProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: %v: %w", err, ErrOAuthFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: %v: %w", err, ErrOAuthFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: profile status %d: %w", resp.StatusCode, ErrOAuthFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: %w", err)
	}

	var profile githubProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: %v: %w", err, ErrOAuthFailed)
	}
	if profile.Login == "" {
		return nil, fmt.Errorf("auth.GitHubProvider.Exchange: empty profile: %w", ErrOAuthFailed)
	}

	return &profile, nil
}

// GitHubAuth binds the OAuth provider to the auth service.
type GitHubAuth struct {
	svc      *Service
	provider *GitHubProvider
}

func NewGitHubAuth(svc *Service, provider *GitHubProvider) *GitHubAuth {
	return &GitHubAuth{svc: svc, provider: provider}
}

// Signin exchanges the authorization code, upserts a verified user and
// issues an access token. Accounts created this way skip the email code
// flow; GitHub already verified the identity.
func (g *GitHubAuth) Signin(ctx context.Context, code string) (string, error) {
	profile, err := g.provider.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth.GitHubAuth.Signin: %w", err)
	}

	email := profile.Email
	if email == "" {
		email = profile.Login
	}

	user, err := g.svc.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now()
		user = &domain.User{
			ID:          uuid.New(),
			Email:       email,
			Name:        profile.Login,
			Verified:    true,
			GitHubLogin: profile.Login,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if createErr := g.svc.users.Create(ctx, user); createErr != nil {
			return "", fmt.Errorf("auth.GitHubAuth.Signin: %w", createErr)
		}
	case err != nil:
		return "", fmt.Errorf("auth.GitHubAuth.Signin: %w", err)
	default:
		if user.GitHubLogin == "" {
			user.GitHubLogin = profile.Login
			user.UpdatedAt = time.Now()
			if updateErr := g.svc.users.Update(ctx, user); updateErr != nil {
				return "", fmt.Errorf("auth.GitHubAuth.Signin: %w", updateErr)
			}
		}
	}

	token, err := IssueAccessToken(g.svc.jwtSecret, user.ID, g.svc.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.GitHubAuth.Signin: %w", err)
	}

	return token, nil
}
