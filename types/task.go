package types

import "time"

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskPriority ranks tasks relative to each other.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task represents a single to-do item owned by one user.
type Task struct {
	// ID is the unique identifier of the task (a UUID string).
	ID string `json:"id" db:"id"`

	// Title is the short summary of the task, 1 to 100 characters.
	Title string `json:"title" db:"title"`

	// Description holds optional free-form notes, up to 500 characters.
	Description *string `json:"description" db:"description"`

	// Status is either pending or completed.
	Status TaskStatus `json:"status" db:"status"`

	// Priority is one of low, medium or high.
	Priority TaskPriority `json:"priority" db:"priority"`

	// DueDate is the optional deadline of the task.
	DueDate *time.Time `json:"dueDate" db:"due_date"`

	// UserID is the owner of the task. It is assigned at creation,
	// never changes, and is not exposed in API responses.
	UserID string `json:"-" db:"user_id"`

	// CategoryID optionally links the task to a category.
	CategoryID *string `json:"categoryId" db:"category_id"`

	// CreatedAt is the timestamp at which the task was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the task.
	// It stays nil until the task is modified for the first time.
	UpdatedAt *time.Time `json:"updatedAt" db:"updated_at"`
}

// TaskFilter narrows a task listing. Nil fields are not applied.
type TaskFilter struct {
	Status   *TaskStatus
	Priority *TaskPriority
}

// Pagination echoes the window applied to a listing.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// TaskList is the paginated listing payload.
type TaskList struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}
