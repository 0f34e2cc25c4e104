package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/mq"
	"github.com/todoapp/apiserver/types"
)

const publishTimeout = 5 * time.Second

// EventPublisher is the subset of the message queue used for task events.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// TaskEvents publishes task lifecycle events. Publishing is best effort:
// failures are logged and never reach the caller. A TaskEvents without a
// publisher, including a nil *TaskEvents, drops every event.
type TaskEvents struct {
	publisher EventPublisher
	channel   string
	logger    logging.Logger
	now       func() time.Time
}

func NewTaskEvents(publisher EventPublisher, channel string, logger logging.Logger) *TaskEvents {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TaskEvents{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish emits an event of the given type for task. The task body is
// omitted for deletions.
func (e *TaskEvents) Publish(ctx context.Context, eventType types.TaskEventType, task types.Task) {
	if e == nil || e.publisher == nil {
		return
	}

	event := types.TaskEvent{
		Type:       eventType,
		TaskID:     task.ID,
		UserID:     task.UserID,
		OccurredAt: e.now().UTC(),
	}
	if eventType != types.TaskDeleted {
		event.Task = &task
	}

	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error(ctx, "encode task event", "type", eventType, "task_id", task.ID, "error", err)
		return
	}

	// The event outlives a cancelled request, but not by much.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	attrs := map[string]string{
		mq.AttrEventType:   string(eventType),
		mq.AttrOrderingKey: task.UserID,
	}
	id, err := e.publisher.Publish(ctx, e.channel, data, attrs)
	if err != nil {
		e.logger.Warn(ctx, "publish task event failed", "type", eventType, "task_id", task.ID, "error", err)
		return
	}
	e.logger.Debug(ctx, "task event published", "type", eventType, "task_id", task.ID, "message_id", id)
}
