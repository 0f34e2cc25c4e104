package types

import "time"

// TaskEventType names a task lifecycle transition.
type TaskEventType string

const (
	TaskCreated   TaskEventType = "task.created"
	TaskUpdated   TaskEventType = "task.updated"
	TaskCompleted TaskEventType = "task.completed"
	TaskDeleted   TaskEventType = "task.deleted"
)

// TaskEvent is published on the task events channel after a task changes.
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     string        `json:"taskId"`
	UserID     string        `json:"userId"`
	OccurredAt time.Time     `json:"occurredAt"`
	// Task is the state after the change. Deletions carry no task.
	Task *Task `json:"task,omitempty"`
}

// TaskExport is the document written by a task export.
type TaskExport struct {
	UserID     string    `json:"userId"`
	ExportedAt time.Time `json:"exportedAt"`
	Tasks      []Task    `json:"tasks"`
}
