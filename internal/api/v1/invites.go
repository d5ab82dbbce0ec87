package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/server/middleware"
)

type InviteMemberInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Email string `json:"email" format:"email" maxLength:"255" doc:"Invitee email address"`
	}
}

type InviteMemberOutput struct {
	Body *domain.Invitation
}

type RespondInviteInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		InviteID uuid.UUID `json:"invite_id" doc:"Invitation ID"`
		Status   string    `json:"status" enum:"accepted,declined" doc:"Decision"`
	}
}

type RespondInviteOutput struct {
	Body struct {
		InviteID uuid.UUID `json:"invite_id"`
		Status   string    `json:"status"`
	}
}

type ListInvitesOutput struct {
	Body []*domain.Invitation
}

func RegisterInviteRoutes(api huma.API, store DataStore, ledger MembershipLedger) {
	huma.Register(api, huma.Operation{
		OperationID:   "invite-member",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/invite",
		Summary:       "Invite someone to a board by email",
		Tags:          []string{"Invitations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *InviteMemberInput) (*InviteMemberOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		inv, err := ledger.Invite(ctx, input.BoardID, userID, input.Body.Email)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("board not found")
			case errors.Is(err, domain.ErrForbidden):
				return nil, huma.Error403Forbidden("not a board member")
			case errors.Is(err, domain.ErrInvalidArgument):
				return nil, huma.Error400BadRequest("invalid invitee email")
			default:
				return nil, huma.Error500InternalServerError("failed to create invitation", err)
			}
		}

		return &InviteMemberOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-invite",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/invite/accept",
		Summary:     "Accept or decline a board invitation",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, input *RespondInviteInput) (*RespondInviteOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		decision := domain.InvitationStatus(input.Body.Status)

		err := ledger.Respond(ctx, input.Body.InviteID, userID, decision)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("invitation not found")
			case errors.Is(err, domain.ErrForbidden):
				return nil, huma.Error403Forbidden("invitation is addressed to someone else")
			case errors.Is(err, domain.ErrConflict):
				return nil, huma.Error409Conflict("invitation already answered")
			case errors.Is(err, domain.ErrInvalidArgument):
				return nil, huma.Error400BadRequest("status must be accepted or declined")
			case errors.Is(err, domain.ErrUnavailable):
				return nil, huma.Error503ServiceUnavailable("accepted, but membership update is delayed")
			default:
				return nil, huma.Error500InternalServerError("failed to respond to invitation", err)
			}
		}

		out := &RespondInviteOutput{}
		out.Body.InviteID = input.Body.InviteID
		out.Body.Status = input.Body.Status
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invites",
		Method:      http.MethodGet,
		Path:        "/boards/invite",
		Summary:     "List pending invitations for the authenticated user",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, _ *struct{}) (*ListInvitesOutput, error) {
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

		invs, err := ledger.ListPendingFor(ctx, user.Email)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list invitations", err)
		}

		return &ListInvitesOutput{Body: invs}, nil
	})
}
