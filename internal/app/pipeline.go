package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/memo-tagger/internal/classification"
	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/platform/gemini"
	"github.com/phrazzld/memo-tagger/internal/platform/metrics"
	"github.com/phrazzld/memo-tagger/internal/platform/postgres"
	"github.com/phrazzld/memo-tagger/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Locator names accepted in config.EnrichmentConfig.Locator.
const (
	LocatorSetDifference = "set_difference"
	LocatorChunked       = "chunked"
)

// tagCacheTTL bounds how long a tag id is reused without a database check.
const tagCacheTTL = 30 * time.Minute

// Pipeline holds the stores and enrichment components built from config.
type Pipeline struct {
	Memos      *postgres.PostgresMemoStore
	Tags       store.TagStore
	Classifier classification.Classifier
	Locator    enrichment.Locator
	Enricher   *enrichment.Enricher
	Runner     *enrichment.Runner
	Metrics    *metrics.EnrichmentMetrics
}

// PipelineOption customizes NewPipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	classifier classification.Classifier
	registerer prometheus.Registerer
}

// WithClassifier replaces the Gemini classifier.
func WithClassifier(c classification.Classifier) PipelineOption {
	return func(o *pipelineOptions) { o.classifier = c }
}

// WithRegisterer registers enrichment metrics with r. Without it no
// metrics are collected.
func WithRegisterer(r prometheus.Registerer) PipelineOption {
	return func(o *pipelineOptions) { o.registerer = r }
}

// NewLocator builds the untagged-set locator named by cfg.Locator.
func NewLocator(cfg config.EnrichmentConfig, memos enrichment.MemoScanner, tags store.TagStore) (enrichment.Locator, error) {
	switch cfg.Locator {
	case LocatorSetDifference, "":
		return enrichment.NewStoreLocator(tags), nil
	case LocatorChunked:
		return enrichment.NewChunkedLocator(memos, tags, cfg.ChunkSize), nil
	default:
		return nil, fmt.Errorf("unknown locator %q", cfg.Locator)
	}
}

// NewPipeline wires the stores, locator, classifier, enricher and runner.
func NewPipeline(
	ctx context.Context,
	cfg *config.Config,
	db *sql.DB,
	logger *slog.Logger,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var o pipelineOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipeline{
		Memos: postgres.NewPostgresMemoStore(db, logger),
		Tags:  store.NewCachedTagStore(postgres.NewPostgresTagStore(db, logger), tagCacheTTL),
	}

	locator, err := NewLocator(cfg.Enrichment, p.Memos, p.Tags)
	if err != nil {
		return nil, err
	}
	p.Locator = locator

	p.Classifier = o.classifier
	if p.Classifier == nil {
		c, err := gemini.NewClassifier(ctx, logger.With("component", "gemini_classifier"), cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize classifier: %w", err)
		}
		p.Classifier = c
	}

	p.Enricher = enrichment.NewEnricher(p.Locator, p.Tags, p.Classifier, enrichment.EnricherConfig{
		ClassifierTimeout: time.Duration(cfg.Enrichment.ClassifierTimeoutSeconds) * time.Second,
		MaxLabels:         cfg.LLM.MaxLabels,
	}, logger)
	p.Runner = enrichment.NewRunner(p.Enricher, logger)

	if o.registerer != nil {
		m, err := metrics.NewEnrichmentMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register enrichment metrics: %w", err)
		}
		p.Metrics = m
		p.Enricher.SetObserver(m)
		p.Runner.SetObserver(m)
	}

	logger.Info("enrichment pipeline ready",
		"locator", cfg.Enrichment.Locator,
		"batch_size", cfg.Enrichment.BatchSize,
		"concurrency", cfg.Enrichment.Concurrency)
	return p, nil
}
