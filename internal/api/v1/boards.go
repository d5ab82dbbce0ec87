package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/events"
	"github.com/corkboard/corkboard/internal/server/middleware"
)

type CreateBoardInput struct {
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Board name"`
		Description string `json:"description,omitempty" maxLength:"2000" doc:"Board description"`
	}
}

type CreateBoardOutput struct {
	Body *domain.Board
}

type ListBoardsOutput struct {
	Body []*domain.Board
}

type GetBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type GetBoardOutput struct {
	Body *domain.Board
}

type UpdateBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Name        string `json:"name,omitempty" maxLength:"255" doc:"Board name"`
		Description string `json:"description,omitempty" maxLength:"2000" doc:"Board description"`
	}
}

type UpdateBoardOutput struct {
	Body *domain.Board
}

type DeleteBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type ListBoardMembersInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type ListBoardMembersOutput struct {
	Body []*domain.User
}

// requireBoard loads a board and checks that userID may see it. Non-members
// get 403 rather than 404 so a revoked member learns the board still exists.
func requireBoard(ctx context.Context, store DataStore, boardID, userID uuid.UUID) (*domain.Board, error) {
	board, err := store.Boards().GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("board not found")
		}
		return nil, huma.Error500InternalServerError("failed to get board", err)
	}

	if !board.HasMember(userID) {
		return nil, huma.Error403Forbidden("not a board member")
	}

	return board, nil
}

func RegisterBoardRoutes(api huma.API, store DataStore, ledger MembershipLedger, emitter *events.Emitter) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-board",
		Method:        http.MethodPost,
		Path:          "/boards",
		Summary:       "Create a new board",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBoardInput) (*CreateBoardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		now := time.Now()
		board := &domain.Board{
			ID:          uuid.New(),
			Name:        input.Body.Name,
			Description: input.Body.Description,
			OwnerID:     userID,
			Members:     []uuid.UUID{userID},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Boards().Create(ctx, board); err != nil {
			return nil, huma.Error500InternalServerError("failed to create board", err)
		}

		emitter.EmitBoard(ctx, board.ID, events.Event{
			Type:    events.TypeBoardCreated,
			BoardID: board.ID,
			Data:    board,
		})

		return &CreateBoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards the authenticated user belongs to",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		boards, err := store.Boards().ListByMember(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list boards", err)
		}

		return &ListBoardsOutput{Body: boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a board by ID",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := requireBoard(ctx, store, input.BoardID, userID)
		if err != nil {
			return nil, err
		}

		return &GetBoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-board",
		Method:      http.MethodPut,
		Path:        "/boards/{boardID}",
		Summary:     "Update a board",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *UpdateBoardInput) (*UpdateBoardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := requireBoard(ctx, store, input.BoardID, userID)
		if err != nil {
			return nil, err
		}

		if input.Body.Name != "" {
			board.Name = input.Body.Name
		}
		if input.Body.Description != "" {
			board.Description = input.Body.Description
		}
		board.UpdatedAt = time.Now()

		if err := store.Boards().Update(ctx, board); err != nil {
			return nil, huma.Error500InternalServerError("failed to update board", err)
		}

		emitter.EmitBoard(ctx, board.ID, events.Event{
			Type:    events.TypeBoardUpdated,
			BoardID: board.ID,
			Data:    board,
		})

		return &UpdateBoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-board",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}",
		Summary:     "Delete a board and everything on it",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *DeleteBoardInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := requireBoard(ctx, store, input.BoardID, userID)
		if err != nil {
			return nil, err
		}

		// Only the owner may delete; members can only leave.
		if board.OwnerID != userID {
			return nil, huma.Error403Forbidden("only the board owner can delete it")
		}

		if err := store.Boards().Delete(ctx, input.BoardID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("board not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete board", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeBoardDeleted,
			BoardID: input.BoardID,
		})

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-board-members",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/members",
		Summary:     "List the members of a board",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *ListBoardMembersInput) (*ListBoardMembersOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		members, err := ledger.Members(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		for _, m := range members {
			m.CodeHash = ""
		}

		return &ListBoardMembersOutput{Body: members}, nil
	})
}
