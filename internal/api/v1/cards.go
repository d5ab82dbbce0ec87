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

// CardView is a card plus the tasks on it, the shape the board screen renders
// in one pass.
type CardView struct {
	*domain.Card
	Tasks []*domain.Task
}

type CreateCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Name        string      `json:"name" minLength:"1" maxLength:"255" doc:"Card name"`
		Description string      `json:"description,omitempty" maxLength:"2000" doc:"Card description"`
		Members     []uuid.UUID `json:"members,omitempty" doc:"Initial card member IDs"`
	}
}

type CreateCardOutput struct {
	Body *domain.Card
}

type ListCardsInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Member  uuid.UUID `query:"member" doc:"Only cards this member is on"`
}

type ListCardsOutput struct {
	Body []*CardView
}

type GetCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

type GetCardOutput struct {
	Body *CardView
}

type UpdateCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	Body    struct {
		Name        string       `json:"name,omitempty" maxLength:"255" doc:"Card name"`
		Description string       `json:"description,omitempty" maxLength:"2000" doc:"Card description"`
		Members     *[]uuid.UUID `json:"members,omitempty" doc:"Replacement card member IDs"`
	}
}

type UpdateCardOutput struct {
	Body *domain.Card
}

type DeleteCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

// requireCard resolves a card within the given board. The lookup is
// board-scoped, so a card id belonging to another board is indistinguishable
// from a missing one.
func requireCard(ctx context.Context, store DataStore, boardID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := store.Cards().GetByID(ctx, boardID, cardID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("card not found")
		}
		return nil, huma.Error500InternalServerError("failed to get card", err)
	}
	return card, nil
}

func RegisterCardRoutes(api huma.API, store DataStore, emitter *events.Emitter) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-card",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/cards",
		Summary:       "Create a card on a board",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCardInput) (*CreateCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := requireBoard(ctx, store, input.BoardID, userID)
		if err != nil {
			return nil, err
		}

		for _, m := range input.Body.Members {
			if !board.HasMember(m) {
				return nil, huma.Error400BadRequest("card member " + m.String() + " is not a board member")
			}
		}

		now := time.Now()
		card := &domain.Card{
			ID:          uuid.New(),
			BoardID:     input.BoardID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Members:     input.Body.Members,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Cards().Create(ctx, card); err != nil {
			return nil, huma.Error500InternalServerError("failed to create card", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeCardCreated,
			BoardID: input.BoardID,
			CardID:  card.ID,
			Data:    card,
		})

		return &CreateCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-cards",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/cards",
		Summary:     "List cards on a board with their tasks",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *ListCardsInput) (*ListCardsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		var cards []*domain.Card
		var err error
		if input.Member != uuid.Nil {
			cards, err = store.Cards().ListByBoardMember(ctx, input.BoardID, input.Member)
		} else {
			cards, err = store.Cards().ListByBoard(ctx, input.BoardID)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list cards", err)
		}

		views := make([]*CardView, 0, len(cards))
		for _, card := range cards {
			tasks, err := store.Tasks().ListByCard(ctx, card.ID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to list tasks for card", err)
			}
			views = append(views, &CardView{Card: card, Tasks: tasks})
		}

		return &ListCardsOutput{Body: views}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/cards/{cardID}",
		Summary:     "Get a card with its tasks",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *GetCardInput) (*GetCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		card, err := store.Cards().GetByID(ctx, input.BoardID, input.CardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to get card", err)
		}

		tasks, err := store.Tasks().ListByCard(ctx, card.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks for card", err)
		}

		return &GetCardOutput{Body: &CardView{Card: card, Tasks: tasks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-card",
		Method:      http.MethodPut,
		Path:        "/boards/{boardID}/cards/{cardID}",
		Summary:     "Update a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *UpdateCardInput) (*UpdateCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := requireBoard(ctx, store, input.BoardID, userID)
		if err != nil {
			return nil, err
		}

		card, err := store.Cards().GetByID(ctx, input.BoardID, input.CardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to get card", err)
		}

		if input.Body.Members != nil {
			for _, m := range *input.Body.Members {
				if !board.HasMember(m) {
					return nil, huma.Error400BadRequest("card member " + m.String() + " is not a board member")
				}
			}
		}

		if input.Body.Name != "" {
			card.Name = input.Body.Name
		}
		if input.Body.Description != "" {
			card.Description = input.Body.Description
		}
		card.UpdatedAt = time.Now()

		if err := store.Cards().Update(ctx, card); err != nil {
			return nil, huma.Error500InternalServerError("failed to update card", err)
		}

		if input.Body.Members != nil {
			members := *input.Body.Members
			if err := store.Cards().SetMembers(ctx, card.ID, members); err != nil {
				return nil, huma.Error500InternalServerError("failed to update card members", err)
			}
			card.Members = members
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeCardUpdated,
			BoardID: input.BoardID,
			CardID:  card.ID,
			Data:    card,
		})

		return &UpdateCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-card",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/cards/{cardID}",
		Summary:     "Delete a card and its tasks",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *DeleteCardInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		if err := store.Cards().Delete(ctx, input.BoardID, input.CardID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete card", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeCardDeleted,
			BoardID: input.BoardID,
			CardID:  input.CardID,
		})

		return nil, nil
	})
}
