package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/todoapp/apiserver/internal/db"
	"github.com/todoapp/apiserver/types"
)

const taskColumns = `id, title, description, status, priority, due_date, user_id, category_id, created_at, updated_at`

// TaskRepository handles persistence for tasks. Every read and write is
// scoped to the owning user.
type TaskRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewTaskRepository(conn *db.DB) *TaskRepository {
	return &TaskRepository{db: conn, now: now}
}

func scanTask(row rowScanner) (types.Task, error) {
	var task types.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.UserID,
		&task.CategoryID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return types.Task{}, err
	}
	task.DueDate = utcPtr(task.DueDate)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = utcPtr(task.UpdatedAt)
	return task, nil
}

// ListForOwner returns one page of the owner's tasks in insertion order,
// together with the number of tasks matching filter before pagination.
func (r *TaskRepository) ListForOwner(ctx context.Context, ownerID string, filter types.TaskFilter, limit, offset int) ([]types.Task, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where := []string{"user_id = ?"}
	args := []any{ownerID}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, string(*filter.Priority))
	}
	cond := strings.Join(where, " AND ")

	countQuery := r.db.Rebind(`SELECT COUNT(1) FROM tasks WHERE ` + cond)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := r.db.Rebind(`
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE ` + cond + `
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]types.Task, 0, min(limit, total))
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// GetForOwner returns ErrNotFound both for missing tasks and for tasks
// owned by someone else.
func (r *TaskRepository) GetForOwner(ctx context.Context, ownerID, id string) (types.Task, error) {
	query := r.db.Rebind(`
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = ? AND user_id = ?`)
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

// Create inserts the task. CreatedAt is stamped here and UpdatedAt stays
// nil. A dangling category yields ErrInvalidReference.
func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	if task.ID == "" {
		id, err := newID()
		if err != nil {
			return types.Task{}, err
		}
		task.ID = id
	}
	task.CreatedAt = r.now()
	task.UpdatedAt = nil
	task.DueDate = utcPtr(task.DueDate)

	query := r.db.Rebind(`
		INSERT INTO tasks (id, title, description, status, priority, due_date, user_id, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.UserID,
		task.CategoryID,
		task.CreatedAt,
		task.UpdatedAt,
	); err != nil {
		return types.Task{}, classify(err, "tasks")
	}
	return task, nil
}

// Update writes every mutable field of task and refreshes UpdatedAt. The
// owner is part of the match, so it can never be reassigned.
func (r *TaskRepository) Update(ctx context.Context, task types.Task) (types.Task, error) {
	updatedAt := r.now()
	task.UpdatedAt = &updatedAt
	task.DueDate = utcPtr(task.DueDate)

	query := r.db.Rebind(`
		UPDATE tasks
		SET title = ?,
			description = ?,
			status = ?,
			priority = ?,
			due_date = ?,
			category_id = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.CategoryID,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return types.Task{}, classify(err, "tasks")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Task{}, err
	}
	if affected == 0 {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
