package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/memo-tagger/internal/app"
	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/events"
	"github.com/phrazzld/memo-tagger/internal/platform/postgres"
	"github.com/phrazzld/memo-tagger/internal/service"
	"github.com/phrazzld/memo-tagger/internal/service/auth"
	"github.com/phrazzld/memo-tagger/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	metrics *prometheus.Registry

	jwtService        auth.JWTService
	memoService       service.MemoService
	enrichmentService service.EnrichmentService

	taskRunner *task.TaskRunner
}

// newApplication wires stores, the enrichment pipeline, the task runner and
// the services, then starts the task runner. Unfinished tasks from a
// previous process are recovered during start.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	a := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: prometheus.NewRegistry(),
	}
	a.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "memotag"),
	)

	var err error
	a.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	pipeline, err := app.NewPipeline(ctx, cfg, db, logger, app.WithRegisterer(a.metrics))
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Enrichment.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid enrichment timezone: %w", err)
	}

	registry := task.NewRegistry()
	a.taskRunner = task.NewTaskRunner(
		postgres.NewPostgresTaskStore(db, logger),
		registry,
		task.TaskRunnerConfig{
			QueueSize:    cfg.Task.QueueSize,
			WorkerCount:  cfg.Task.WorkerCount,
			StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
		},
		logger,
	)

	emitter := events.NewInMemoryEventEmitter(logger)

	a.memoService, err = service.NewMemoService(
		db, pipeline.Memos, pipeline.Tags, pipeline.Enricher, emitter, location, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo service: %w", err)
	}

	a.enrichmentService, err = service.NewEnrichmentService(
		pipeline.Enricher, pipeline.Runner, a.taskRunner, cfg.Enrichment, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment service: %w", err)
	}

	memoTasks := task.NewMemoTaggingTaskFactory(a.memoService, logger)
	registry.Register(task.TaskTypeMemoTagging, memoTasks.Rehydrate)
	registry.Register(task.TaskTypeEnrichmentRun, task.EnrichmentRunRehydrator(a.enrichmentService, logger))
	emitter.RegisterHandler(events.TypeMemoTagging,
		task.NewTaskFactoryEventHandler(memoTasks, a.taskRunner, logger))

	if err := a.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized")
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (a *application) Run(ctx context.Context) error {
	defer a.cleanup()
	if err := a.startHTTPServer(ctx, a.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the task runner before closing the pool it writes to.
func (a *application) cleanup() {
	if a.taskRunner != nil {
		a.taskRunner.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("error closing database connection", "error", err)
		}
	}
	a.logger.Info("application shutdown completed")
}
