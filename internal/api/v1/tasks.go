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

type CreateTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	Body    struct {
		Title       string `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string `json:"description,omitempty" maxLength:"5000" doc:"Task description"`
		Status      string `json:"status,omitempty" enum:"icebox,backlog,ongoing,review,done" doc:"Initial status, defaults to icebox"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

type ListTasksOutput struct {
	Body []*domain.Task
}

type GetTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	TaskID  uuid.UUID `path:"taskID" doc:"Task ID"`
}

type GetTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	TaskID  uuid.UUID `path:"taskID" doc:"Task ID"`
	Body    struct {
		Title       string `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Description string `json:"description,omitempty" maxLength:"5000" doc:"Task description"`
		Status      string `json:"status,omitempty" enum:"icebox,backlog,ongoing,review,done" doc:"Task status"`
	}
}

type UpdateTaskOutput struct {
	Body *domain.Task
}

type MoveTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card the task is currently on"`
	TaskID  uuid.UUID `path:"taskID" doc:"Task ID"`
	Body    struct {
		CardID uuid.UUID `json:"card_id" doc:"Destination card ID"`
	}
}

type MoveTaskOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	TaskID  uuid.UUID `path:"taskID" doc:"Task ID"`
}

func RegisterTaskRoutes(api huma.API, store DataStore, emitter *events.Emitter) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/cards/{cardID}/tasks",
		Summary:       "Create a task on a card",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
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

		status := domain.TaskStatusIcebox
		if input.Body.Status != "" {
			status = domain.TaskStatus(input.Body.Status)
		}

		now := time.Now()
		task := &domain.Task{
			ID:          uuid.New(),
			CardID:      input.CardID,
			BoardID:     input.BoardID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      status,
			OwnerID:     userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Tasks().Create(ctx, task); err != nil {
			return nil, huma.Error500InternalServerError("failed to create task", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeTaskCreated,
			BoardID: input.BoardID,
			CardID:  input.CardID,
			TaskID:  task.ID,
			Data:    task,
		})

		return &CreateTaskOutput{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks",
		Summary:     "List the tasks on a card",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
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

		tasks, err := store.Tasks().ListByCard(ctx, input.CardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks", err)
		}

		return &ListTasksOutput{Body: tasks}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks/{taskID}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*GetTaskOutput, error) {
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

		task, err := store.Tasks().GetByCard(ctx, input.CardID, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		return &GetTaskOutput{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks/{taskID}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
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

		task, err := store.Tasks().GetByCard(ctx, input.CardID, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if input.Body.Title != "" {
			task.Title = input.Body.Title
		}
		if input.Body.Description != "" {
			task.Description = input.Body.Description
		}
		if input.Body.Status != "" {
			task.Status = domain.TaskStatus(input.Body.Status)
		}
		task.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, task); err != nil {
			return nil, huma.Error500InternalServerError("failed to update task", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeTaskUpdated,
			BoardID: input.BoardID,
			CardID:  input.CardID,
			TaskID:  task.ID,
			Data:    task,
		})

		return &UpdateTaskOutput{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-task",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks/{taskID}/move",
		Summary:     "Move a task to another card on the same board",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *MoveTaskInput) (*MoveTaskOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if _, err := requireBoard(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		// Both ends of the move must be cards on the path's board; a card id
		// from another board resolves to nothing.
		if _, err := requireCard(ctx, store, input.BoardID, input.CardID); err != nil {
			return nil, err
		}

		dest, err := store.Cards().GetByID(ctx, input.BoardID, input.Body.CardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("destination card not found")
			}
			return nil, huma.Error500InternalServerError("failed to get destination card", err)
		}

		// Single conditional write: the task only moves if it is still on the
		// card the client thinks it is on. A concurrent move wins and this
		// request sees 404.
		if err := store.Tasks().Move(ctx, input.TaskID, input.CardID, dest.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task is not on the source card")
			}
			return nil, huma.Error500InternalServerError("failed to move task", err)
		}

		task, err := store.Tasks().GetByCard(ctx, dest.ID, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("moved, but failed to reload task", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeTaskMoved,
			BoardID: input.BoardID,
			CardID:  dest.ID,
			TaskID:  task.ID,
			Data:    task,
		})

		return &MoveTaskOutput{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/cards/{cardID}/tasks/{taskID}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
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

		if err := store.Tasks().Delete(ctx, input.CardID, input.TaskID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete task", err)
		}

		emitter.EmitBoard(ctx, input.BoardID, events.Event{
			Type:    events.TypeTaskDeleted,
			BoardID: input.BoardID,
			CardID:  input.CardID,
			TaskID:  input.TaskID,
		})

		return nil, nil
	})
}
