package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// EnrichmentRunPayload is the persisted description of an enrichment run.
// Window bounds use the YYYY-MM-DD form and may be empty.
type EnrichmentRunPayload struct {
	RunID          uuid.UUID `json:"run_id"`
	BatchSize      int       `json:"batch_size"`
	Concurrency    int       `json:"concurrency"`
	From           string    `json:"from,omitempty"`
	To             string    `json:"to,omitempty"`
	StallThreshold int       `json:"stall_threshold,omitempty"`
}

// RunExecutor executes an enrichment run to completion.
type RunExecutor interface {
	ExecuteRun(ctx context.Context, payload EnrichmentRunPayload) error
}

// EnrichmentRunTask executes one enrichment run. Its id is the run id.
type EnrichmentRunTask struct {
	statusHolder

	payload  EnrichmentRunPayload
	executor RunExecutor
	logger   *slog.Logger
}

// NewEnrichmentRunTask creates the task for payload.RunID.
func NewEnrichmentRunTask(payload EnrichmentRunPayload, executor RunExecutor, logger *slog.Logger) (*EnrichmentRunTask, error) {
	if executor == nil {
		return nil, ErrNilExecutor
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if payload.RunID == uuid.Nil {
		return nil, ErrEmptyRunID
	}

	return &EnrichmentRunTask{
		statusHolder: statusHolder{status: TaskStatusPending},
		payload:      payload,
		executor:     executor,
		logger:       logger.With("task_type", TaskTypeEnrichmentRun, "run_id", payload.RunID),
	}, nil
}

// ID returns the task's unique identifier
func (t *EnrichmentRunTask) ID() uuid.UUID {
	return t.payload.RunID
}

// Type returns the task type identifier
func (t *EnrichmentRunTask) Type() string {
	return TaskTypeEnrichmentRun
}

// Payload returns the task data as a byte slice
func (t *EnrichmentRunTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte("{}")
	}
	return data
}

// RunPayload returns the run description.
func (t *EnrichmentRunTask) RunPayload() EnrichmentRunPayload {
	return t.payload
}

// Execute runs the enrichment run.
func (t *EnrichmentRunTask) Execute(ctx context.Context) error {
	t.set(TaskStatusProcessing)

	if err := t.executor.ExecuteRun(ctx, t.payload); err != nil {
		t.set(TaskStatusFailed)
		return fmt.Errorf("enrichment run failed: %w", err)
	}

	t.set(TaskStatusCompleted)
	return nil
}

// EnrichmentRunRehydrator rebuilds persisted run tasks for executor.
func EnrichmentRunRehydrator(executor RunExecutor, logger *slog.Logger) Rehydrator {
	return func(id uuid.UUID, payload []byte) (Task, error) {
		var p EnrichmentRunPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("invalid enrichment run payload: %w", err)
		}
		if p.RunID == uuid.Nil {
			p.RunID = id
		}
		return NewEnrichmentRunTask(p, executor, logger)
	}
}
