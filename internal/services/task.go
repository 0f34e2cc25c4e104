package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/store"
	"github.com/todoapp/apiserver/internal/validation"
	"github.com/todoapp/apiserver/types"
)

const (
	DefaultTaskLimit = 20
	MaxTaskLimit     = 100

	msgTaskNotFound     = "Task not found"
	msgCategoryNotFound = "Category not found"
)

// TaskRepository defines persistence operations for tasks. Every call is
// scoped to an owner.
type TaskRepository interface {
	ListForOwner(ctx context.Context, ownerID string, filter types.TaskFilter, limit, offset int) ([]types.Task, int, error)
	GetForOwner(ctx context.Context, ownerID, id string) (types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TaskService encapsulates task use-cases. The caller identity is an
// explicit ownerID on every method; a task owned by someone else behaves
// exactly like a missing one.
type TaskService struct {
	tasks      TaskRepository
	categories CategoryRepository
	validator  *validation.Validator
	events     *TaskEvents
}

func NewTaskService(tasks TaskRepository, categories CategoryRepository, validator *validation.Validator, events *TaskEvents) *TaskService {
	return &TaskService{
		tasks:      tasks,
		categories: categories,
		validator:  validator,
		events:     events,
	}
}

// List returns one page of the owner's tasks. Limits above MaxTaskLimit
// are clamped.
func (s *TaskService) List(ctx context.Context, ownerID string, q types.TaskQuery) (types.TaskList, error) {
	if err := s.validator.Struct(apperr.LocQuery, q); err != nil {
		return types.TaskList{}, err
	}
	if q.Limit > MaxTaskLimit {
		q.Limit = MaxTaskLimit
	}

	filter := types.TaskFilter{Status: q.Status, Priority: q.Priority}
	tasks, total, err := s.tasks.ListForOwner(ctx, ownerID, filter, q.Limit, q.Offset)
	if err != nil {
		return types.TaskList{}, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	return types.TaskList{
		Tasks: tasks,
		Pagination: types.Pagination{
			Total:  total,
			Limit:  q.Limit,
			Offset: q.Offset,
		},
	}, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (types.Task, error) {
	task, err := s.tasks.GetForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, apperr.NotFound(msgTaskNotFound)
		}
		return types.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Create stores a new task for ownerID. Status defaults to pending and
// priority to medium.
func (s *TaskService) Create(ctx context.Context, ownerID string, req types.TaskCreate) (types.Task, error) {
	if err := s.validator.Struct(apperr.LocBody, req); err != nil {
		return types.Task{}, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return types.Task{}, err
	}

	task := types.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      types.TaskStatusPending,
		Priority:    types.TaskPriorityMedium,
		DueDate:     req.DueDate.TimePtr(),
		UserID:      ownerID,
		CategoryID:  req.CategoryID,
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return types.Task{}, categoryMissing()
		}
		return types.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.events.Publish(ctx, types.TaskCreated, created)
	return created, nil
}

// Update applies the supplied fields of patch. An empty patch returns the
// task untouched.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch types.TaskPatch) (types.Task, error) {
	if err := s.validator.Struct(apperr.LocBody, patch); err != nil {
		return types.Task{}, err
	}

	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return types.Task{}, err
	}
	if patch.Empty() {
		return task, nil
	}

	if patch.CategoryID.Valid {
		if err := s.checkCategory(ctx, patch.CategoryID.Ptr()); err != nil {
			return types.Task{}, err
		}
	}
	applyPatch(&task, patch)

	return s.save(ctx, task, types.TaskUpdated)
}

// Complete marks the task as completed.
func (s *TaskService) Complete(ctx context.Context, ownerID, id string) (types.Task, error) {
	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return types.Task{}, err
	}
	task.Status = types.TaskStatusCompleted

	return s.save(ctx, task, types.TaskCompleted)
}

// Delete removes the task permanently. Deleting it again yields NotFound.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgTaskNotFound)
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.events.Publish(ctx, types.TaskDeleted, types.Task{ID: id, UserID: ownerID})
	return nil
}

// ListAll walks every page of the owner's tasks.
func (s *TaskService) ListAll(ctx context.Context, ownerID string) ([]types.Task, error) {
	all := []types.Task{}
	for offset := 0; ; offset += MaxTaskLimit {
		page, total, err := s.tasks.ListForOwner(ctx, ownerID, types.TaskFilter{}, MaxTaskLimit, offset)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		all = append(all, page...)
		if len(page) < MaxTaskLimit || offset+len(page) >= total {
			return all, nil
		}
	}
}

func (s *TaskService) save(ctx context.Context, task types.Task, eventType types.TaskEventType) (types.Task, error) {
	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return types.Task{}, apperr.NotFound(msgTaskNotFound)
		case errors.Is(err, store.ErrInvalidReference):
			return types.Task{}, categoryMissing()
		}
		return types.Task{}, fmt.Errorf("update task: %w", err)
	}

	s.events.Publish(ctx, eventType, updated)
	return updated, nil
}

func (s *TaskService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.Get(ctx, *categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return categoryMissing()
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

func categoryMissing() error {
	return apperr.Invalid(apperr.LocBody, msgCategoryNotFound, "categoryId")
}

// applyPatch copies the supplied fields of patch onto task. Null title,
// status or priority were already treated as absent during decoding.
func applyPatch(task *types.Task, patch types.TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description.Set {
		task.Description = patch.Description.Ptr()
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Ptr().TimePtr()
	}
	if patch.CategoryID.Set {
		task.CategoryID = patch.CategoryID.Ptr()
	}
}
