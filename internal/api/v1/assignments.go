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

type AssignTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	TaskID  uuid.UUID `path:"taskID" doc:"Task ID"`
	Body    struct {
		MemberID uuid.UUID `json:"memberId" doc:"Board member to assign"`
	}
}

type AssignTaskOutput struct {
	Body *domain.Assignment
}

type ListAssignmentsInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	TaskID  uuid.UUID `path:"taskID" doc:"Task ID"`
}

type ListAssignmentsOutput struct {
	Body []*domain.Assignment
}

type UnassignTaskInput struct {
	BoardID  uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID   uuid.UUID `path:"cardID" doc:"Card ID"`
	TaskID   uuid.UUID `path:"taskID" doc:"Task ID"`
	MemberID uuid.UUID `path:"memberID" doc:"Assigned member ID"`
}

func RegisterAssignmentRoutes(api huma.API, store DataStore, emitter *events.Emitter) {
	huma.Register(api, huma.Operation{
		OperationID:   "assign-task",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/cards/{cardID}/tasks/{taskID}/assign",
		Summary:       "Assign a board member to a task",
		Tags:          []string{"Assignments"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AssignTaskInput) (*AssignTaskOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := requireBoard(ctx, store, input.BoardID, userID)
		if err != nil {
			return nil, err
		}

		// Assignees come from the board's member set, nowhere else.
		if !board.HasMember(input.Body.MemberID) {
			return nil, huma.Error400BadRequest("assignee is not a board member")
		}

		if _, err := requireCard(ctx, store, input.BoardID, input.CardID); err != nil {
			return nil, err
		}

		task, err := store.Tasks().GetByCard(ctx, input.CardID, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		a := &domain.Assignment{
			TaskID:     task.ID,
			MemberID:   input.Body.MemberID,
			AssignedAt: time.Now(),
		}

		if err := store.Tasks().Assign(ctx, a); err != nil {
			return nil, huma.Error500InternalServerError("failed to assign task", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:     events.TypeTaskAssigned,
			BoardID:  input.BoardID,
			CardID:   input.CardID,
			TaskID:   task.ID,
			MemberID: input.Body.MemberID,
			Data:     a,
		})

		return &AssignTaskOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assignments",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks/{taskID}/assign",
		Summary:     "List the members assigned to a task",
		Tags:        []string{"Assignments"},
	}, func(ctx context.Context, input *ListAssignmentsInput) (*ListAssignmentsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		if _, err := requireCard(ctx, store, input.BoardID, input.CardID); err != nil {
			return nil, err
		}

		if _, err := store.Tasks().GetByCard(ctx, input.CardID, input.TaskID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		assignments, err := store.Tasks().ListAssignments(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list assignments", err)
		}

		return &ListAssignmentsOutput{Body: assignments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unassign-task",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks/{taskID}/assign/{memberID}",
		Summary:     "Remove a member's assignment from a task",
		Tags:        []string{"Assignments"},
	}, func(ctx context.Context, input *UnassignTaskInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		if _, err := requireCard(ctx, store, input.BoardID, input.CardID); err != nil {
			return nil, err
		}

		if _, err := store.Tasks().GetByCard(ctx, input.CardID, input.TaskID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if err := store.Tasks().Unassign(ctx, input.TaskID, input.MemberID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("assignment not found")
			}
			return nil, huma.Error500InternalServerError("failed to unassign task", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:     events.TypeTaskUnassigned,
			BoardID:  input.BoardID,
			CardID:   input.CardID,
			TaskID:   input.TaskID,
			MemberID: input.MemberID,
		})

		return nil, nil
	})
}
