package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/classification"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultClassifierTimeout bounds a single classifier call when no timeout is
// configured.
const DefaultClassifierTimeout = 30 * time.Second

// TagWriter is the write side of store.TagStore used to commit results.
// Every method must be idempotent and safe for concurrent use.
type TagWriter interface {
	UpsertTag(ctx context.Context, name string) (*domain.Tag, error)
	UpsertAssociation(ctx context.Context, memoID, tagID uuid.UUID) error
	RemoveAssociations(ctx context.Context, memoID uuid.UUID, names []string) error
}

// BatchOptions are the per-invocation parameters of one batch.
type BatchOptions struct {
	// BatchSize is the maximum number of memos taken from the untagged set.
	BatchSize int
	// Concurrency caps the number of classifier calls in flight.
	Concurrency int
	// Window optionally restricts the batch to a creation-date range.
	Window *domain.Window
}

// Validate checks that the options can drive a batch.
func (o BatchOptions) Validate() error {
	if o.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidOptions, o.BatchSize)
	}
	if o.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidOptions, o.Concurrency)
	}
	if err := o.Window.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// CapConcurrency lowers requested to max when max is positive. Negative
// requests are left for Validate to reject.
func CapConcurrency(requested, max int) int {
	if max > 0 && requested > max {
		return max
	}
	return requested
}

// EnricherConfig holds the Enricher's static settings.
type EnricherConfig struct {
	// ClassifierTimeout bounds each classifier call. Zero uses
	// DefaultClassifierTimeout.
	ClassifierTimeout time.Duration

	// MaxLabels caps the tags kept per memo. Zero uses
	// classification.DefaultMaxLabels.
	MaxLabels int
}

// Enricher runs single enrichment batches.
type Enricher struct {
	locator    Locator
	tags       TagWriter
	classifier classification.Classifier
	config     EnricherConfig
	observer   Observer
	logger     *slog.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(
	locator Locator,
	tags TagWriter,
	classifier classification.Classifier,
	config EnricherConfig,
	logger *slog.Logger,
) *Enricher {
	if config.ClassifierTimeout <= 0 {
		config.ClassifierTimeout = DefaultClassifierTimeout
	}
	if config.MaxLabels <= 0 {
		config.MaxLabels = classification.DefaultMaxLabels
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Enricher{
		locator:    locator,
		tags:       tags,
		classifier: classifier,
		config:     config,
		observer:   NopObserver{},
		logger:     logger.With("component", "enricher"),
	}
}

// SetObserver replaces the event observer. It must be called before the
// Enricher is used.
func (e *Enricher) SetObserver(observer Observer) {
	if observer == nil {
		observer = NopObserver{}
	}
	e.observer = observer
}

// RemainingCount exposes the locator's count of untagged memos in window.
func (e *Enricher) RemainingCount(ctx context.Context, window *domain.Window) (int, error) {
	return e.locator.RemainingCount(ctx, window)
}

// RunBatch enriches up to opts.BatchSize untagged memos.
//
// Memos are processed in chunks of opts.Concurrency: chunks run one after
// another and the memos inside a chunk run concurrently. A failing memo never
// affects its siblings. After the last chunk the remaining count is re-read
// from the locator.
//
// The returned error is non-nil only when the untagged set cannot be read,
// or when ctx ends before the batch completes. In the latter case the
// counts for the memos that did finish are returned with it.
func (e *Enricher) RunBatch(ctx context.Context, opts BatchOptions) (domain.BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return domain.BatchResult{}, err
	}

	start := time.Now()

	memos, err := e.locator.Locate(ctx, opts.Window, opts.BatchSize)
	if err != nil {
		return domain.BatchResult{}, err
	}
	if len(memos) == 0 {
		e.logger.DebugContext(ctx, "no untagged memos left", "window", opts.Window.String())
		return domain.BatchResult{}, nil
	}

	e.logger.DebugContext(ctx, "starting batch",
		"memo_count", len(memos),
		"concurrency", opts.Concurrency,
		"window", opts.Window.String())

	var result domain.BatchResult
	outcomes := make([]Outcome, len(memos))
	for lo := 0; lo < len(memos); lo += opts.Concurrency {
		if ctx.Err() != nil {
			break
		}
		hi := min(lo+opts.Concurrency, len(memos))

		// A plain Group: no goroutine returns an error, so one memo can
		// never cancel the others.
		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				outcomes[i] = e.enrichMemo(ctx, memos[i])
				return nil
			})
		}
		_ = g.Wait()

		for _, outcome := range outcomes[lo:hi] {
			switch outcome {
			case OutcomeTagged, OutcomeUnclassified:
				result.Processed++
			case OutcomeQuarantined:
				result.Failed++
				result.Quarantined++
			case OutcomeFailed:
				result.Failed++
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch interrupted: %w", err)
	}

	remaining, err := e.locator.RemainingCount(ctx, opts.Window)
	if err != nil {
		return result, err
	}
	result.Remaining = remaining

	elapsed := time.Since(start)
	e.observer.BatchFinished(result, elapsed)
	e.logger.InfoContext(ctx, "batch finished",
		"processed", result.Processed,
		"failed", result.Failed,
		"quarantined", result.Quarantined,
		"remaining", result.Remaining,
		"duration_ms", elapsed.Milliseconds())

	return result, nil
}

// EnrichMemo classifies and tags a single memo regardless of whether it is
// already tagged. It reports the same outcome RunBatch would count.
func (e *Enricher) EnrichMemo(ctx context.Context, memo domain.Memo) Outcome {
	return e.enrichMemo(ctx, memo)
}

func (e *Enricher) enrichMemo(ctx context.Context, memo domain.Memo) (outcome Outcome) {
	start := time.Now()
	log := e.logger.With("memo_id", memo.ID)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "panic while enriching memo", "panic", r)
			outcome = e.quarantine(ctx, log, memo.ID, fmt.Errorf("panic: %v", r))
		}
		e.observer.ItemFinished(outcome, time.Since(start))
	}()

	labels, err := e.suggest(ctx, memo.Text)
	if err != nil {
		return e.quarantine(ctx, log, memo.ID, err)
	}

	names := classification.NormalizeLabels(labels, e.config.MaxLabels)
	outcome = OutcomeTagged
	if len(names) == 0 {
		names = []string{domain.SentinelUnclassified}
		outcome = OutcomeUnclassified
	}

	if err := e.commit(ctx, memo.ID, names); err != nil {
		return e.quarantine(ctx, log, memo.ID, fmt.Errorf("commit tags: %w", err))
	}

	// Markers from an earlier attempt go only after the new tags landed, so
	// the memo never drops back into the untagged set.
	if stale := staleSentinels(names); len(stale) > 0 {
		if err := e.tags.RemoveAssociations(ctx, memo.ID, stale); err != nil {
			log.ErrorContext(ctx, "failed to clear stale tag markers", "error", err)
			return OutcomeFailed
		}
	}

	log.DebugContext(ctx, "memo enriched", "tags", names, "outcome", outcome.String())
	return outcome
}

// staleSentinels returns the sentinel names that a memo tagged with names
// must no longer carry.
func staleSentinels(names []string) []string {
	stale := make([]string, 0, 2)
	for _, sentinel := range []string{domain.SentinelUnclassified, domain.SentinelClassificationError} {
		if !slices.Contains(names, sentinel) {
			stale = append(stale, sentinel)
		}
	}
	return stale
}

func (e *Enricher) suggest(ctx context.Context, text string) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.config.ClassifierTimeout)
	defer cancel()
	return e.classifier.Suggest(callCtx, text)
}

func (e *Enricher) commit(ctx context.Context, memoID uuid.UUID, names []string) error {
	for _, name := range names {
		tag, err := e.tags.UpsertTag(ctx, name)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		if err := e.tags.UpsertAssociation(ctx, memoID, tag.ID); err != nil {
			return fmt.Errorf("associate tag %q: %w", name, err)
		}
	}
	return nil
}

// quarantine writes the classification-error marker so the memo leaves the
// untagged set. Failure to write it is logged and absorbed. When ctx itself
// has ended the marker is skipped and the memo stays eligible for a later run.
func (e *Enricher) quarantine(ctx context.Context, log *slog.Logger, memoID uuid.UUID, cause error) Outcome {
	if ctx.Err() != nil {
		log.WarnContext(ctx, "memo enrichment interrupted", "error", cause)
		return OutcomeFailed
	}

	log.WarnContext(ctx, "memo enrichment failed", "error", cause)

	if err := e.commit(ctx, memoID, []string{domain.SentinelClassificationError}); err != nil {
		log.ErrorContext(ctx, "failed to mark memo with classification error", "error", err)
		return OutcomeFailed
	}
	return OutcomeQuarantined
}
