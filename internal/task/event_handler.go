package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/events"
)

// Submitter accepts tasks for background execution. *TaskRunner implements it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// MemoTaskFactory creates a task for a memo.
type MemoTaskFactory interface {
	CreateTask(memoID uuid.UUID) (Task, error)
}

// TaskFactoryEventHandler turns memo events into submitted tasks.
type TaskFactoryEventHandler struct {
	factory   MemoTaskFactory
	submitter Submitter
	logger    *slog.Logger
}

// NewTaskFactoryEventHandler creates a handler that builds tasks with
// factory and hands them to submitter.
func NewTaskFactoryEventHandler(factory MemoTaskFactory, submitter Submitter, logger *slog.Logger) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent implements events.EventHandler.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	var payload events.MemoPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := h.factory.CreateTask(payload.MemoID)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"memo_id", payload.MemoID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.submitter.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"memo_id", payload.MemoID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Debug("task created and submitted",
		"task_id", task.ID(),
		"memo_id", payload.MemoID,
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
