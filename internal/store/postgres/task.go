package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corkboard/corkboard/internal/domain"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

const taskColumns = `id, card_id, board_id, title, description, status, owner_id, created_at, updated_at`

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, card_id, board_id, title, description, status, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.CardID, t.BoardID, t.Title, t.Description,
		t.Status, t.OwnerID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE board_id = $1 AND id = $2`,
		boardID, id,
	)

	return scanTask(row, "taskRepo.GetByID")
}

func (r *TaskRepo) GetByCard(ctx context.Context, cardID, id uuid.UUID) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE card_id = $1 AND id = $2`,
		cardID, id,
	)

	return scanTask(row, "taskRepo.GetByCard")
}

func (r *TaskRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE card_id = $1 ORDER BY created_at`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByCard: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByCard")
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET title = $3, description = $4, status = $5, updated_at = $6
		 WHERE card_id = $1 AND id = $2`,
		t.CardID, t.ID, t.Title, t.Description, t.Status, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// Move is a single conditional update: the row changes card only if it is
// still under fromCardID. No row matched means the task is absent or already
// moved, reported as ErrNotFound either way.
func (r *TaskRepo) Move(ctx context.Context, id, fromCardID, toCardID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET card_id = $3, updated_at = now()
		 WHERE id = $1 AND card_id = $2`,
		id, fromCardID, toCardID,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Move: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Move: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, cardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tasks WHERE card_id = $1 AND id = $2`, cardID, id)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) Assign(ctx context.Context, a *domain.Assignment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assignments (task_id, member_id, assigned_at) VALUES ($1, $2, $3)
		 ON CONFLICT (task_id, member_id) DO NOTHING`,
		a.TaskID, a.MemberID, a.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Assign: %w", err)
	}

	return nil
}

func (r *TaskRepo) ListAssignments(ctx context.Context, taskID uuid.UUID) ([]*domain.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT task_id, member_id, assigned_at FROM assignments
		 WHERE task_id = $1 ORDER BY assigned_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListAssignments: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Assignment, 0)
	for rows.Next() {
		var a domain.Assignment
		if scanErr := rows.Scan(&a.TaskID, &a.MemberID, &a.AssignedAt); scanErr != nil {
			return nil, fmt.Errorf("taskRepo.ListAssignments: scan: %w", scanErr)
		}
		out = append(out, &a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("taskRepo.ListAssignments: %w", rows.Err())
	}

	return out, nil
}

func (r *TaskRepo) Unassign(ctx context.Context, taskID, memberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM assignments WHERE task_id = $1 AND member_id = $2`,
		taskID, memberID,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Unassign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Unassign: %w", domain.ErrNotFound)
	}

	return nil
}

func scanTask(row pgx.Row, op string) (*domain.Task, error) {
	var t domain.Task

	err := row.Scan(
		&t.ID, &t.CardID, &t.BoardID, &t.Title, &t.Description,
		&t.Status, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func scanTasks(rows pgx.Rows, op string) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		var t domain.Task
		err := rows.Scan(
			&t.ID, &t.CardID, &t.BoardID, &t.Title, &t.Description,
			&t.Status, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		tasks = append(tasks, &t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return tasks, nil
}
