package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/corkboard/corkboard/internal/auth"
	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/server/middleware"
)

type SendCodeInput struct {
	Body struct {
		Email string `json:"email" format:"email" maxLength:"255" doc:"Email address to send the code to"`
	}
}

type SendCodeOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

type SignupInput struct {
	Body struct {
		Email string `json:"email" format:"email" maxLength:"255" doc:"Email address"`
		Code  string `json:"code" minLength:"6" maxLength:"6" doc:"Emailed verification code"`
	}
}

type SignupOutput struct {
	Body *domain.User
}

type SigninInput struct {
	Body struct {
		Email string `json:"email" format:"email" maxLength:"255" doc:"Email address"`
		Code  string `json:"code" minLength:"6" maxLength:"6" doc:"Emailed verification code"`
	}
}

type SigninOutput struct {
	Body struct {
		AccessToken string `json:"accessToken"` //nolint:gosec // G117: auth response DTO
	}
}

type GitHubSigninInput struct {
	Body struct {
		Code string `json:"code" minLength:"1" doc:"GitHub OAuth authorization code"`
	}
}

type GitHubSigninOutput struct {
	Body struct {
		AccessToken string `json:"accessToken"` //nolint:gosec // G117: auth response DTO
	}
}

type GetCurrentUserOutput struct {
	Body *domain.User
}

type UpdateCurrentUserInput struct {
	Body struct {
		Name string `json:"name" maxLength:"255" doc:"Display name"`
	}
}

type UpdateCurrentUserOutput struct {
	Body *domain.User
}

func RegisterAuthRoutes(api huma.API, store DataStore, authSvc AuthService, github GitHubAuthenticator) {
	huma.Register(api, huma.Operation{
		OperationID: "send-code",
		Method:      http.MethodPost,
		Path:        "/auth/send-code",
		Summary:     "Email a one-time verification code",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *SendCodeInput) (*SendCodeOutput, error) {
		if err := authSvc.SendCode(ctx, input.Body.Email); err != nil {
			if errors.Is(err, auth.ErrMailUnavailable) {
				return nil, huma.Error503ServiceUnavailable("could not send verification code")
			}
			return nil, huma.Error500InternalServerError("failed to send verification code", err)
		}

		out := &SendCodeOutput{}
		out.Body.Message = "verification code sent"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/auth/signup",
		Summary:       "Verify the emailed code and activate the account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *SignupInput) (*SignupOutput, error) {
		user, err := authSvc.Signup(ctx, input.Body.Email, input.Body.Code)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCode):
				return nil, huma.Error401Unauthorized("invalid email or code")
			case errors.Is(err, auth.ErrCodeExpired):
				return nil, huma.Error401Unauthorized("verification code expired")
			default:
				return nil, huma.Error500InternalServerError("signup failed", err)
			}
		}

		user.CodeHash = ""

		return &SignupOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "signin",
		Method:      http.MethodPost,
		Path:        "/auth/signin",
		Summary:     "Verify the emailed code and issue an access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *SigninInput) (*SigninOutput, error) {
		token, err := authSvc.Signin(ctx, input.Body.Email, input.Body.Code)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCode):
				return nil, huma.Error401Unauthorized("invalid email or code")
			case errors.Is(err, auth.ErrCodeExpired):
				return nil, huma.Error401Unauthorized("verification code expired")
			case errors.Is(err, auth.ErrNotVerified):
				return nil, huma.Error403Forbidden("account not verified, sign up first")
			default:
				return nil, huma.Error500InternalServerError("signin failed", err)
			}
		}

		out := &SigninOutput{}
		out.Body.AccessToken = token
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "github-signin",
		Method:      http.MethodPost,
		Path:        "/auth/github",
		Summary:     "Sign in with a GitHub OAuth authorization code",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *GitHubSigninInput) (*GitHubSigninOutput, error) {
		if github == nil {
			return nil, huma.Error503ServiceUnavailable("github sign-in is not configured")
		}

		token, err := github.Signin(ctx, input.Body.Code)
		if err != nil {
			if errors.Is(err, auth.ErrOAuthFailed) {
				return nil, huma.Error401Unauthorized("github authorization failed")
			}
			return nil, huma.Error500InternalServerError("github signin failed", err)
		}

		out := &GitHubSigninOutput{}
		out.Body.AccessToken = token
		return out, nil
	})
}

func RegisterUserRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-current-user",
		Method:      http.MethodGet,
		Path:        "/auth/user",
		Summary:     "Get the authenticated user's profile",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*GetCurrentUserOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		user, err := store.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		user.CodeHash = ""

		return &GetCurrentUserOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-current-user",
		Method:      http.MethodPut,
		Path:        "/auth/user",
		Summary:     "Update the authenticated user's profile",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *UpdateCurrentUserInput) (*UpdateCurrentUserOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		user, err := store.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		if input.Body.Name != "" {
			user.Name = input.Body.Name
		}
		user.UpdatedAt = time.Now()

		if err := store.Users().Update(ctx, user); err != nil {
			return nil, huma.Error500InternalServerError("failed to update user", err)
		}

		user.CodeHash = ""

		return &UpdateCurrentUserOutput{Body: user}, nil
	})
}
