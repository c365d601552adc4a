package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownTaskType is returned when no rehydrator is registered for a
// persisted task's type.
var ErrUnknownTaskType = errors.New("unknown task type")

// Rehydrator rebuilds an executable task from its persisted id and payload.
type Rehydrator func(id uuid.UUID, payload []byte) (Task, error)

// Registry maps task types to rehydrators.
type Registry struct {
	mu          sync.RWMutex
	rehydrators map[string]Rehydrator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rehydrators: make(map[string]Rehydrator)}
}

// Register sets the rehydrator for taskType, replacing any previous one.
func (r *Registry) Register(taskType string, fn Rehydrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rehydrators[taskType] = fn
}

// Rehydrate turns a persisted record back into a task.
func (r *Registry) Rehydrate(rec Record) (Task, error) {
	r.mu.RLock()
	fn, ok := r.rehydrators[rec.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}

	t, err := fn(rec.ID, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate %s task %s: %w", rec.Type, rec.ID, err)
	}
	return t, nil
}
