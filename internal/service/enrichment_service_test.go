package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/task"
	"github.com/phrazzld/memo-tagger/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnrichmentConfig() config.EnrichmentConfig {
	return config.EnrichmentConfig{
		BatchSize:           10,
		Concurrency:         2,
		StallThreshold:      3,
		RunRetentionMinutes: 5,
		Timezone:            "UTC",
	}
}

// capturingSubmitter keeps submitted tasks for the test to execute.
type capturingSubmitter struct {
	mu    sync.Mutex
	tasks []task.Task
	err   error
}

func (s *capturingSubmitter) Submit(_ context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, t)
	return nil
}

// blockingDriver reports one progress update and then waits for cancel.
type blockingDriver struct {
	started chan struct{}
	gotOpts enrichment.RunOptions
}

func (d *blockingDriver) Run(
	ctx context.Context,
	opts enrichment.RunOptions,
	cancel *enrichment.CancelSignal,
	progress enrichment.ProgressFunc,
) (enrichment.RunSummary, error) {
	d.gotOpts = opts
	progress(enrichment.Progress{TotalProcessed: 3, Batches: 1, LastRemaining: 9, State: enrichment.StateRunning})
	close(d.started)
	select {
	case <-cancel.Done():
	case <-ctx.Done():
	}
	return enrichment.RunSummary{TotalProcessed: 3, Batches: 1, LastRemaining: 9, State: enrichment.StateCancelled}, nil
}

func newEnrichmentFixture(t *testing.T, driver RunDriver, submitter task.Submitter) (EnrichmentService, *testutils.MemStore) {
	t.Helper()
	s := testutils.NewMemStore()
	enricher := newEnricher(s, &testutils.StaticClassifier{Labels: []string{"auto"}})
	if driver == nil {
		driver = enrichment.NewRunner(enricher, discardLogger())
	}
	svc, err := NewEnrichmentService(enricher, driver, submitter, testEnrichmentConfig(), discardLogger())
	require.NoError(t, err)
	return svc, s
}

func TestEnrichmentServiceRunBatch(t *testing.T) {
	t.Parallel()

	svc, s := newEnrichmentFixture(t, nil, nil)
	ctx := context.Background()
	testutils.SeedMemos(t, s, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), 3)
	testutils.SeedMemos(t, s, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC), 2)

	result, err := svc.RunBatch(ctx, BatchRequest{BatchSize: 5, From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, domain.BatchResult{Processed: 3, Remaining: 0}, result)

	remaining, err := svc.Remaining(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	result, err = svc.RunBatch(ctx, BatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed, "zero sizes use configured defaults")
}

func TestEnrichmentServiceCapsConcurrency(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	testutils.SeedMemos(t, s, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), 8)
	probe := &testutils.ConcurrencyProbe{Labels: []string{"auto"}, Delay: 20 * time.Millisecond}
	cfg := testEnrichmentConfig()
	cfg.MaxConcurrency = 2
	enricher := newEnricher(s, probe)
	svc, err := NewEnrichmentService(enricher, enrichment.NewRunner(enricher, discardLogger()), nil, cfg, discardLogger())
	require.NoError(t, err)

	result, err := svc.RunBatch(context.Background(), BatchRequest{BatchSize: 8, Concurrency: 64})
	require.NoError(t, err)
	assert.Equal(t, 8, result.Processed)
	assert.LessOrEqual(t, probe.Peak(), 2)
}

func TestEnrichmentServiceRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc, _ := newEnrichmentFixture(t, nil, &capturingSubmitter{})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"inverted window", func() error {
			_, err := svc.RunBatch(ctx, BatchRequest{From: "2024-02-01", To: "2024-01-01"})
			return err
		}},
		{"bad date", func() error {
			_, err := svc.Remaining(ctx, "yesterday", "")
			return err
		}},
		{"negative batch size", func() error {
			_, err := svc.RunBatch(ctx, BatchRequest{BatchSize: -1})
			return err
		}},
		{"negative stall threshold", func() error {
			_, err := svc.StartRun(ctx, RunRequest{StallThreshold: -2})
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tc.call(), enrichment.ErrInvalidOptions)
		})
	}
}

func TestEnrichmentServiceRunLifecycle(t *testing.T) {
	t.Parallel()

	submitter := &capturingSubmitter{}
	svc, s := newEnrichmentFixture(t, nil, submitter)
	ctx := context.Background()
	testutils.SeedMemos(t, s, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7)

	status, err := svc.StartRun(ctx, RunRequest{BatchRequest: BatchRequest{BatchSize: 3}})
	require.NoError(t, err)
	assert.Equal(t, enrichment.StateRunning, status.Progress.State)
	require.Len(t, submitter.tasks, 1)
	assert.Equal(t, status.ID, submitter.tasks[0].ID(), "task id is the run id")

	require.NoError(t, submitter.tasks[0].Execute(ctx))

	final, err := svc.GetRun(ctx, status.ID)
	require.NoError(t, err)
	assert.Equal(t, enrichment.StateDone, final.Progress.State)
	assert.Equal(t, 7, final.Progress.TotalProcessed)
	assert.Equal(t, 3, final.Progress.Batches)
	assert.NotNil(t, final.FinishedAt)
	assert.Empty(t, final.Error)

	cancelled, err := svc.CancelRun(ctx, status.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.CancelRequested, "finished runs ignore cancel")
}

func TestEnrichmentServiceCancelRun(t *testing.T) {
	t.Parallel()

	driver := &blockingDriver{started: make(chan struct{})}
	submitter := &capturingSubmitter{}
	svc, _ := newEnrichmentFixture(t, driver, submitter)
	ctx := context.Background()

	status, err := svc.StartRun(ctx, RunRequest{BatchRequest: BatchRequest{BatchSize: 4, Concurrency: 1}})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- submitter.tasks[0].Execute(ctx) }()
	<-driver.started

	mid, err := svc.GetRun(ctx, status.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, mid.Progress.TotalProcessed)
	assert.Equal(t, enrichment.StateRunning, mid.Progress.State)

	requested, err := svc.CancelRun(ctx, status.ID)
	require.NoError(t, err)
	assert.True(t, requested.CancelRequested)

	require.NoError(t, <-done)
	final, err := svc.GetRun(ctx, status.ID)
	require.NoError(t, err)
	assert.Equal(t, enrichment.StateCancelled, final.Progress.State)
	assert.Equal(t, 4, driver.gotOpts.BatchSize)
	assert.Equal(t, 3, driver.gotOpts.StallThreshold, "default threshold applied")
}

func TestEnrichmentServiceShutdownIsNotCancel(t *testing.T) {
	t.Parallel()

	driver := &blockingDriver{started: make(chan struct{})}
	svc, _ := newEnrichmentFixture(t, driver, nil)

	ctx, cancel := context.WithCancel(context.Background())
	payload := task.EnrichmentRunPayload{RunID: uuid.New(), BatchSize: 2, Concurrency: 1}

	done := make(chan error, 1)
	go func() { done <- svc.ExecuteRun(ctx, payload) }()
	<-driver.started
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	status, err := svc.GetRun(context.Background(), payload.RunID)
	require.NoError(t, err)
	assert.NotEmpty(t, status.Error)
}

func TestEnrichmentServiceUnknownRun(t *testing.T) {
	t.Parallel()

	svc, _ := newEnrichmentFixture(t, nil, &capturingSubmitter{})
	_, err := svc.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = svc.CancelRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestEnrichmentServiceSubmitFailure(t *testing.T) {
	t.Parallel()

	submitter := &capturingSubmitter{err: errors.New("queue full")}
	svc, _ := newEnrichmentFixture(t, nil, submitter)

	_, err := svc.StartRun(context.Background(), RunRequest{})
	require.Error(t, err)

	impl := svc.(*enrichmentServiceImpl)
	assert.Zero(t, impl.registry.runs.ItemCount(), "failed submissions leave no run behind")
}

func TestRunRegistryRetention(t *testing.T) {
	t.Parallel()

	reg := newRunRegistry(time.Minute)
	id := uuid.New()
	entry := reg.begin(id)
	assert.Same(t, entry, reg.begin(id), "begin is idempotent")

	reg.finish(entry, enrichment.RunSummary{State: enrichment.StateDone}, nil)
	_, expiration, found := reg.runs.GetWithExpiration(id.String())
	require.True(t, found)
	assert.False(t, expiration.IsZero(), "finished runs expire")
}
