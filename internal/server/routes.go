package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/corkboard/corkboard/internal/api/v1"
	"github.com/corkboard/corkboard/internal/auth"
	"github.com/corkboard/corkboard/internal/events"
	"github.com/corkboard/corkboard/internal/membership"
	"github.com/corkboard/corkboard/internal/store/postgres"
)

// registerAuthRoutes mounts the unauthenticated sign-up and sign-in
// endpoints.
func registerAuthRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, github *auth.GitHubAuth) {
	// A nil *GitHubAuth must stay a nil interface so the handler's
	// configured check works.
	var gh v1.GitHubAuthenticator
	if github != nil {
		gh = github
	}
	v1.RegisterAuthRoutes(api, store, authSvc, gh)
}

// registerAPIRoutes mounts everything behind the bearer token.
func registerAPIRoutes(api huma.API, store *postgres.Store, ledger *membership.Ledger, emitter *events.Emitter) {
	v1.RegisterUserRoutes(api, store)
	v1.RegisterBoardRoutes(api, store, ledger, emitter)
	v1.RegisterInviteRoutes(api, store, ledger)
	v1.RegisterCardRoutes(api, store, emitter)
	v1.RegisterTaskRoutes(api, store, emitter)
	v1.RegisterAssignmentRoutes(api, store, emitter)
}
