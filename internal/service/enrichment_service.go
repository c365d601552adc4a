package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/platform/logger"
	"github.com/phrazzld/memo-tagger/internal/task"
)

// BatchRequest describes one enrichment batch. Zero sizes fall back to the
// configured defaults. From and To are optional YYYY-MM-DD dates.
type BatchRequest struct {
	BatchSize   int
	Concurrency int
	From        string
	To          string
}

// RunRequest describes a multi-batch enrichment run.
type RunRequest struct {
	BatchRequest
	StallThreshold int
}

// BatchEnricher is the part of *enrichment.Enricher the service needs.
type BatchEnricher interface {
	RunBatch(ctx context.Context, opts enrichment.BatchOptions) (domain.BatchResult, error)
	RemainingCount(ctx context.Context, window *domain.Window) (int, error)
}

// RunDriver executes multi-batch runs. *enrichment.Runner implements it.
type RunDriver interface {
	Run(
		ctx context.Context,
		opts enrichment.RunOptions,
		cancel *enrichment.CancelSignal,
		progress enrichment.ProgressFunc,
	) (enrichment.RunSummary, error)
}

// EnrichmentService exposes bulk tag enrichment to the API and the CLI.
type EnrichmentService interface {
	// RunBatch runs a single batch synchronously.
	RunBatch(ctx context.Context, req BatchRequest) (domain.BatchResult, error)

	// Remaining returns the number of untagged memos in the window.
	Remaining(ctx context.Context, from, to string) (int, error)

	// StartRun schedules a multi-batch run as a background task.
	StartRun(ctx context.Context, req RunRequest) (RunStatus, error)

	// GetRun returns the status of a run started in this process.
	GetRun(ctx context.Context, id uuid.UUID) (RunStatus, error)

	// CancelRun asks a run to stop at its next batch boundary. Cancelling a
	// finished run is a no-op.
	CancelRun(ctx context.Context, id uuid.UUID) (RunStatus, error)

	// ExecuteRun drives the run described by payload to a terminal state.
	ExecuteRun(ctx context.Context, payload task.EnrichmentRunPayload) error
}

// enrichmentServiceImpl implements EnrichmentService
type enrichmentServiceImpl struct {
	enricher  BatchEnricher
	runner    RunDriver
	submitter task.Submitter
	registry  *runRegistry
	defaults  config.EnrichmentConfig
	location  *time.Location
	logger    *slog.Logger
}

var (
	_ EnrichmentService = (*enrichmentServiceImpl)(nil)
	_ task.RunExecutor  = (*enrichmentServiceImpl)(nil)
)

// NewEnrichmentService creates an EnrichmentService. submitter may be nil
// when runs are only executed in the foreground through ExecuteRun.
func NewEnrichmentService(
	enricher BatchEnricher,
	runner RunDriver,
	submitter task.Submitter,
	defaults config.EnrichmentConfig,
	logger *slog.Logger,
) (EnrichmentService, error) {
	if enricher == nil {
		return nil, errors.New("enricher cannot be nil")
	}
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc := time.UTC
	if defaults.Timezone != "" {
		l, err := time.LoadLocation(defaults.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid enrichment timezone %q: %w", defaults.Timezone, err)
		}
		loc = l
	}

	retention := time.Duration(defaults.RunRetentionMinutes) * time.Minute
	if retention <= 0 {
		retention = time.Hour
	}

	return &enrichmentServiceImpl{
		enricher:  enricher,
		runner:    runner,
		submitter: submitter,
		registry:  newRunRegistry(retention),
		defaults:  defaults,
		location:  loc,
		logger:    logger.With("component", "enrichment_service"),
	}, nil
}

// batchOptions resolves req against the configured defaults.
func (s *enrichmentServiceImpl) batchOptions(req BatchRequest) (enrichment.BatchOptions, error) {
	window, err := domain.ParseWindow(req.From, req.To, s.location)
	if err != nil {
		return enrichment.BatchOptions{}, fmt.Errorf("%w: %v", enrichment.ErrInvalidOptions, err)
	}

	opts := enrichment.BatchOptions{
		BatchSize:   req.BatchSize,
		Concurrency: req.Concurrency,
		Window:      window,
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = s.defaults.BatchSize
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = s.defaults.Concurrency
	}
	opts.Concurrency = enrichment.CapConcurrency(opts.Concurrency, s.defaults.MaxConcurrency)
	return opts, opts.Validate()
}

func (s *enrichmentServiceImpl) runOptions(req RunRequest) (enrichment.RunOptions, error) {
	batch, err := s.batchOptions(req.BatchRequest)
	if err != nil {
		return enrichment.RunOptions{}, err
	}
	opts := enrichment.RunOptions{BatchOptions: batch, StallThreshold: req.StallThreshold}
	if opts.StallThreshold == 0 {
		opts.StallThreshold = s.defaults.StallThreshold
	}
	return opts, opts.Validate()
}

// RunBatch implements EnrichmentService.RunBatch
func (s *enrichmentServiceImpl) RunBatch(ctx context.Context, req BatchRequest) (domain.BatchResult, error) {
	opts, err := s.batchOptions(req)
	if err != nil {
		return domain.BatchResult{}, err
	}
	return s.enricher.RunBatch(ctx, opts)
}

// Remaining implements EnrichmentService.Remaining
func (s *enrichmentServiceImpl) Remaining(ctx context.Context, from, to string) (int, error) {
	window, err := domain.ParseWindow(from, to, s.location)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", enrichment.ErrInvalidOptions, err)
	}
	return s.enricher.RemainingCount(ctx, window)
}

// StartRun implements EnrichmentService.StartRun
func (s *enrichmentServiceImpl) StartRun(ctx context.Context, req RunRequest) (RunStatus, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.submitter == nil {
		return RunStatus{}, errors.New("background runs are not enabled")
	}

	opts, err := s.runOptions(req)
	if err != nil {
		return RunStatus{}, err
	}

	payload := task.EnrichmentRunPayload{
		RunID:          uuid.New(),
		BatchSize:      opts.BatchSize,
		Concurrency:    opts.Concurrency,
		From:           req.From,
		To:             req.To,
		StallThreshold: opts.StallThreshold,
	}

	runTask, err := task.NewEnrichmentRunTask(payload, s, s.logger)
	if err != nil {
		return RunStatus{}, fmt.Errorf("failed to create run task: %w", err)
	}

	entry := s.registry.begin(payload.RunID)
	if err := s.submitter.Submit(ctx, runTask); err != nil {
		s.registry.remove(payload.RunID)
		log.Error("failed to submit enrichment run", "run_id", payload.RunID, "error", err)
		return RunStatus{}, fmt.Errorf("failed to submit enrichment run: %w", err)
	}

	log.Info("enrichment run scheduled",
		"run_id", payload.RunID,
		"batch_size", opts.BatchSize,
		"concurrency", opts.Concurrency,
		"window", opts.Window.String())
	return entry.snapshot(), nil
}

// GetRun implements EnrichmentService.GetRun
func (s *enrichmentServiceImpl) GetRun(_ context.Context, id uuid.UUID) (RunStatus, error) {
	entry, ok := s.registry.get(id)
	if !ok {
		return RunStatus{}, ErrRunNotFound
	}
	return entry.snapshot(), nil
}

// CancelRun implements EnrichmentService.CancelRun
func (s *enrichmentServiceImpl) CancelRun(ctx context.Context, id uuid.UUID) (RunStatus, error) {
	entry, ok := s.registry.get(id)
	if !ok {
		return RunStatus{}, ErrRunNotFound
	}

	status := entry.snapshot()
	if !status.Progress.State.Terminal() {
		entry.cancel.Raise()
		logger.FromContextOrDefault(ctx, s.logger).Info("enrichment run cancel requested", "run_id", id)
	}
	return entry.snapshot(), nil
}

// ExecuteRun implements task.RunExecutor. A run recovered after a restart
// gets a fresh registry entry.
func (s *enrichmentServiceImpl) ExecuteRun(ctx context.Context, payload task.EnrichmentRunPayload) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With("run_id", payload.RunID)

	entry := s.registry.begin(payload.RunID)

	opts, err := s.runOptions(RunRequest{
		BatchRequest: BatchRequest{
			BatchSize:   payload.BatchSize,
			Concurrency: payload.Concurrency,
			From:        payload.From,
			To:          payload.To,
		},
		StallThreshold: payload.StallThreshold,
	})
	if err != nil {
		s.registry.finish(entry, enrichment.RunSummary{State: enrichment.StateFailed}, err)
		return err
	}

	log.Info("enrichment run started")
	summary, err := s.runner.Run(ctx, opts, entry.cancel, func(p enrichment.Progress) {
		s.registry.progress(entry, p)
	})

	// A run interrupted by shutdown rather than by its cancel signal did
	// not finish; report it as an error so the task is not marked done.
	if err == nil && summary.State == enrichment.StateCancelled && !entry.cancel.Requested() && ctx.Err() != nil {
		err = fmt.Errorf("enrichment run interrupted: %w", ctx.Err())
	}
	s.registry.finish(entry, summary, err)

	log.Info("enrichment run finished",
		"state", summary.State,
		"processed", summary.TotalProcessed,
		"failed", summary.TotalFailed,
		"remaining", summary.LastRemaining,
		"batches", summary.Batches)
	return err
}
