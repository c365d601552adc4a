package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/service"
	"github.com/phrazzld/memo-tagger/internal/task"
)

// MockEnrichmentService implements service.EnrichmentService for testing.
// It records the requests it receives.
type MockEnrichmentService struct {
	RunBatchFn   func(ctx context.Context, req service.BatchRequest) (domain.BatchResult, error)
	RemainingFn  func(ctx context.Context, from, to string) (int, error)
	StartRunFn   func(ctx context.Context, req service.RunRequest) (service.RunStatus, error)
	GetRunFn     func(ctx context.Context, id uuid.UUID) (service.RunStatus, error)
	CancelRunFn  func(ctx context.Context, id uuid.UUID) (service.RunStatus, error)
	ExecuteRunFn func(ctx context.Context, payload task.EnrichmentRunPayload) error

	// Default return values
	Result       domain.BatchResult
	Status       service.RunStatus
	DefaultError error

	mu          sync.Mutex
	batchCalls  []service.BatchRequest
	runRequests []service.RunRequest
}

var _ service.EnrichmentService = (*MockEnrichmentService)(nil)

// RunBatch implements the EnrichmentService.RunBatch method
func (m *MockEnrichmentService) RunBatch(ctx context.Context, req service.BatchRequest) (domain.BatchResult, error) {
	m.mu.Lock()
	m.batchCalls = append(m.batchCalls, req)
	m.mu.Unlock()

	if m.RunBatchFn != nil {
		return m.RunBatchFn(ctx, req)
	}
	return m.Result, m.DefaultError
}

// Remaining implements the EnrichmentService.Remaining method
func (m *MockEnrichmentService) Remaining(ctx context.Context, from, to string) (int, error) {
	if m.RemainingFn != nil {
		return m.RemainingFn(ctx, from, to)
	}
	return m.Result.Remaining, m.DefaultError
}

// StartRun implements the EnrichmentService.StartRun method
func (m *MockEnrichmentService) StartRun(ctx context.Context, req service.RunRequest) (service.RunStatus, error) {
	m.mu.Lock()
	m.runRequests = append(m.runRequests, req)
	m.mu.Unlock()

	if m.StartRunFn != nil {
		return m.StartRunFn(ctx, req)
	}
	return m.Status, m.DefaultError
}

// GetRun implements the EnrichmentService.GetRun method
func (m *MockEnrichmentService) GetRun(ctx context.Context, id uuid.UUID) (service.RunStatus, error) {
	if m.GetRunFn != nil {
		return m.GetRunFn(ctx, id)
	}
	return m.Status, m.DefaultError
}

// CancelRun implements the EnrichmentService.CancelRun method
func (m *MockEnrichmentService) CancelRun(ctx context.Context, id uuid.UUID) (service.RunStatus, error) {
	if m.CancelRunFn != nil {
		return m.CancelRunFn(ctx, id)
	}
	return m.Status, m.DefaultError
}

// ExecuteRun implements the EnrichmentService.ExecuteRun method
func (m *MockEnrichmentService) ExecuteRun(ctx context.Context, payload task.EnrichmentRunPayload) error {
	if m.ExecuteRunFn != nil {
		return m.ExecuteRunFn(ctx, payload)
	}
	return m.DefaultError
}

// BatchCalls returns the batch requests received so far.
func (m *MockEnrichmentService) BatchCalls() []service.BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.BatchRequest(nil), m.batchCalls...)
}

// RunRequests returns the run requests received so far.
func (m *MockEnrichmentService) RunRequests() []service.RunRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.RunRequest(nil), m.runRequests...)
}
