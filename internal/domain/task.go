package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusIcebox  TaskStatus = "icebox"
	TaskStatusBacklog TaskStatus = "backlog"
	TaskStatusOngoing TaskStatus = "ongoing"
	TaskStatusReview  TaskStatus = "review"
	TaskStatusDone    TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusIcebox, TaskStatusBacklog, TaskStatusOngoing, TaskStatusReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task belongs to exactly one card at a time. BoardID is a lookup key, not a
// second owner; moving a task reassigns CardID within the same board.
type Task struct {
	ID          uuid.UUID
	CardID      uuid.UUID
	BoardID     uuid.UUID
	Title       string
	Description string
	Status      TaskStatus
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignment records one member assigned to one task.
type Assignment struct {
	TaskID     uuid.UUID
	MemberID   uuid.UUID
	AssignedAt time.Time
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Task, error)
	GetByCard(ctx context.Context, cardID, id uuid.UUID) (*Task, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, t *Task) error

	// Move reassigns the task from one card to another in a single
	// conditional write. Returns ErrNotFound when the task is not currently
	// under fromCardID, which also makes a retried move a no-op instead of a
	// duplicate.
	Move(ctx context.Context, id, fromCardID, toCardID uuid.UUID) error

	Delete(ctx context.Context, cardID, id uuid.UUID) error

	// Assignments
	Assign(ctx context.Context, a *Assignment) error
	ListAssignments(ctx context.Context, taskID uuid.UUID) ([]*Assignment, error)
	Unassign(ctx context.Context, taskID, memberID uuid.UUID) error
}
