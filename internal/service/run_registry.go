package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
)

// RunStatus is the externally visible state of an enrichment run.
type RunStatus struct {
	ID         uuid.UUID           `json:"run_id"`
	Progress   enrichment.Progress `json:"progress"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Error      string              `json:"error,omitempty"`

	// CancelRequested is true once a cancel was asked for, even if the run
	// has not reached a batch boundary yet.
	CancelRequested bool `json:"cancel_requested"`
}

type runEntry struct {
	mu     sync.RWMutex
	status RunStatus
	cancel *enrichment.CancelSignal
}

func (e *runEntry) snapshot() RunStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.status
	s.CancelRequested = e.cancel.Requested()
	return s
}

// runRegistry tracks runs in this process. Active runs never expire;
// finished runs are kept for the retention period so their outcome can
// still be read.
type runRegistry struct {
	mu        sync.Mutex
	runs      *cache.Cache
	retention time.Duration
	now       func() time.Time
}

func newRunRegistry(retention time.Duration) *runRegistry {
	return &runRegistry{
		runs:      cache.New(retention, retention),
		retention: retention,
		now:       time.Now,
	}
}

// begin registers id as running, or returns the existing entry.
func (r *runRegistry) begin(id uuid.UUID) *runEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.runs.Get(id.String()); ok {
		return existing.(*runEntry)
	}

	entry := &runEntry{
		status: RunStatus{
			ID:        id,
			Progress:  enrichment.Progress{State: enrichment.StateRunning},
			StartedAt: r.now().UTC(),
		},
		cancel: enrichment.NewCancelSignal(),
	}
	r.runs.Set(id.String(), entry, cache.NoExpiration)
	return entry
}

func (r *runRegistry) get(id uuid.UUID) (*runEntry, bool) {
	v, ok := r.runs.Get(id.String())
	if !ok {
		return nil, false
	}
	return v.(*runEntry), true
}

func (r *runRegistry) remove(id uuid.UUID) {
	r.runs.Delete(id.String())
}

// progress records an intermediate observation.
func (r *runRegistry) progress(entry *runEntry, p enrichment.Progress) {
	entry.mu.Lock()
	entry.status.Progress = p
	entry.mu.Unlock()
}

// finish records the final summary and starts the retention clock.
func (r *runRegistry) finish(entry *runEntry, summary enrichment.RunSummary, err error) {
	finished := r.now().UTC()

	entry.mu.Lock()
	entry.status.Progress = summary
	entry.status.FinishedAt = &finished
	if err != nil {
		entry.status.Error = err.Error()
	}
	id := entry.status.ID
	entry.mu.Unlock()

	r.mu.Lock()
	r.runs.Set(id.String(), entry, r.retention)
	r.mu.Unlock()
}
