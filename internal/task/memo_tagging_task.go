package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNilTagger   = errors.New("memo tagger cannot be nil")
	ErrNilExecutor = errors.New("run executor cannot be nil")
	ErrNilLogger   = errors.New("logger cannot be nil")
	ErrEmptyMemoID = errors.New("memo ID cannot be empty")
	ErrEmptyRunID  = errors.New("run ID cannot be empty")
)

// MemoTagger classifies one memo and stores its tags.
type MemoTagger interface {
	TagMemo(ctx context.Context, memoID uuid.UUID) error
}

// memoTaggingPayload represents the serialized data stored in the task
type memoTaggingPayload struct {
	MemoID uuid.UUID `json:"memo_id"`
}

// statusHolder is the mutable status shared by the concrete tasks.
type statusHolder struct {
	mu     sync.RWMutex
	status TaskStatus
}

func (h *statusHolder) set(s TaskStatus) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

// Status returns the current task status
func (h *statusHolder) Status() TaskStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// MemoTaggingTask tags a single memo in the background.
type MemoTaggingTask struct {
	statusHolder

	id     uuid.UUID
	memoID uuid.UUID
	tagger MemoTagger
	logger *slog.Logger
}

// NewMemoTaggingTask creates a task with a fresh id.
func NewMemoTaggingTask(memoID uuid.UUID, tagger MemoTagger, logger *slog.Logger) (*MemoTaggingTask, error) {
	return newMemoTaggingTask(uuid.New(), memoID, tagger, logger)
}

func newMemoTaggingTask(id, memoID uuid.UUID, tagger MemoTagger, logger *slog.Logger) (*MemoTaggingTask, error) {
	if tagger == nil {
		return nil, ErrNilTagger
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if memoID == uuid.Nil {
		return nil, ErrEmptyMemoID
	}

	return &MemoTaggingTask{
		statusHolder: statusHolder{status: TaskStatusPending},
		id:           id,
		memoID:       memoID,
		tagger:       tagger,
		logger:       logger.With("task_type", TaskTypeMemoTagging, "memo_id", memoID),
	}, nil
}

// ID returns the task's unique identifier
func (t *MemoTaggingTask) ID() uuid.UUID {
	return t.id
}

// MemoID returns the memo this task tags.
func (t *MemoTaggingTask) MemoID() uuid.UUID {
	return t.memoID
}

// Type returns the task type identifier
func (t *MemoTaggingTask) Type() string {
	return TaskTypeMemoTagging
}

// Payload returns the task data as a byte slice
func (t *MemoTaggingTask) Payload() []byte {
	data, err := json.Marshal(memoTaggingPayload{MemoID: t.memoID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte("{}")
	}
	return data
}

// Execute tags the memo.
func (t *MemoTaggingTask) Execute(ctx context.Context) error {
	t.set(TaskStatusProcessing)

	if err := ctx.Err(); err != nil {
		t.set(TaskStatusFailed)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	if err := t.tagger.TagMemo(ctx, t.memoID); err != nil {
		t.set(TaskStatusFailed)
		return fmt.Errorf("failed to tag memo: %w", err)
	}

	t.set(TaskStatusCompleted)
	t.logger.Debug("memo tagging task completed")
	return nil
}

// MemoTaggingTaskFactory creates MemoTaggingTask instances
type MemoTaggingTaskFactory struct {
	tagger MemoTagger
	logger *slog.Logger
}

// NewMemoTaggingTaskFactory creates a new factory.
func NewMemoTaggingTaskFactory(tagger MemoTagger, logger *slog.Logger) *MemoTaggingTaskFactory {
	return &MemoTaggingTaskFactory{tagger: tagger, logger: logger}
}

// CreateTask creates a new tagging task for memoID.
func (f *MemoTaggingTaskFactory) CreateTask(memoID uuid.UUID) (Task, error) {
	return NewMemoTaggingTask(memoID, f.tagger, f.logger)
}

// Rehydrate implements Rehydrator for persisted tagging tasks.
func (f *MemoTaggingTaskFactory) Rehydrate(id uuid.UUID, payload []byte) (Task, error) {
	var p memoTaggingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid memo tagging payload: %w", err)
	}
	return newMemoTaggingTask(id, p.MemoID, f.tagger, f.logger)
}
