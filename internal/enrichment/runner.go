package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/memo-tagger/internal/domain"
)

// DefaultStallThreshold is the number of consecutive batches without
// progress after which a run stops as stalled.
const DefaultStallThreshold = 3

// State is the state of an enrichment run.
type State string

// Run states. Every state except StateRunning is terminal.
const (
	StateRunning   State = "RUNNING"
	StateDone      State = "DONE"
	StateStalled   State = "STALLED"
	StateCancelled State = "CANCELLED"
	StateFailed    State = "FAILED"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s != StateRunning && s != ""
}

// BatchRunner runs one enrichment batch. *Enricher implements it.
type BatchRunner interface {
	RunBatch(ctx context.Context, opts BatchOptions) (domain.BatchResult, error)
}

// RunOptions are the parameters of a multi-batch run.
type RunOptions struct {
	BatchOptions

	// StallThreshold is the number of consecutive no-progress batches that
	// stall the run. Zero uses DefaultStallThreshold.
	StallThreshold int
}

// Validate checks that the options can drive a run.
func (o RunOptions) Validate() error {
	if o.StallThreshold < 0 {
		return fmt.Errorf("%w: stall threshold cannot be negative", ErrInvalidOptions)
	}
	return o.BatchOptions.Validate()
}

// Progress is a snapshot of a run, emitted after every batch.
type Progress struct {
	TotalProcessed int           `json:"total_processed"`
	TotalFailed    int           `json:"total_failed"`
	LastRemaining  int           `json:"last_remaining"`
	Batches        int           `json:"batches"`
	Elapsed        time.Duration `json:"elapsed"`
	State          State         `json:"state"`
}

// RunSummary is the final Progress of a run. Its State is the stop reason.
type RunSummary = Progress

// ProgressFunc receives progress snapshots. It is called synchronously from
// the run loop and should return quickly.
type ProgressFunc func(Progress)

// Runner drives repeated batches until the untagged set is exhausted.
type Runner struct {
	batches  BatchRunner
	observer Observer
	logger   *slog.Logger
}

// NewRunner creates a Runner over batches.
func NewRunner(batches BatchRunner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		batches:  batches,
		observer: NopObserver{},
		logger:   logger.With("component", "enrichment_runner"),
	}
}

// SetObserver replaces the event observer.
func (r *Runner) SetObserver(observer Observer) {
	if observer == nil {
		observer = NopObserver{}
	}
	r.observer = observer
}

// Run executes batches one at a time until a terminal state is reached:
//
//   - DONE when a batch observes no remaining untagged memos;
//   - STALLED after StallThreshold consecutive batches that moved no memo
//     out of the untagged set;
//   - CANCELLED when cancel was raised, or ctx ended, before a batch starts;
//   - FAILED when a batch returns an error, which Run also returns.
//
// Cancellation is only checked between batches. If ctx ends while a batch
// is in flight the batch stops dispatching new memos and the run ends as
// CANCELLED. Totals accumulated so far are always part of the summary.
func (r *Runner) Run(
	ctx context.Context,
	opts RunOptions,
	cancel *CancelSignal,
	progress ProgressFunc,
) (RunSummary, error) {
	if err := opts.Validate(); err != nil {
		return RunSummary{State: StateFailed}, err
	}
	threshold := opts.StallThreshold
	if threshold == 0 {
		threshold = DefaultStallThreshold
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	start := time.Now()
	summary := RunSummary{State: StateRunning}
	idle := 0

	r.logger.InfoContext(ctx, "enrichment run started",
		"batch_size", opts.BatchSize,
		"concurrency", opts.Concurrency,
		"window", opts.Window.String(),
		"stall_threshold", threshold)

	for summary.State == StateRunning {
		if cancel.Requested() || ctx.Err() != nil {
			summary.State = StateCancelled
			summary.Elapsed = time.Since(start)
			progress(summary)
			break
		}

		result, err := r.batches.RunBatch(ctx, opts.BatchOptions)
		summary.Batches++
		summary.TotalProcessed += result.Processed
		summary.TotalFailed += result.Failed

		switch {
		case err != nil && ctx.Err() != nil:
			summary.State = StateCancelled
		case err != nil:
			summary.State = StateFailed
			summary.Elapsed = time.Since(start)
			progress(summary)
			r.finish(ctx, summary, err)
			return summary, fmt.Errorf("enrichment batch %d: %w", summary.Batches, err)
		case result.Remaining == 0:
			summary.LastRemaining = 0
			summary.State = StateDone
		default:
			summary.LastRemaining = result.Remaining
			if result.MadeProgress() {
				idle = 0
			} else {
				idle++
				r.logger.WarnContext(ctx, "batch made no progress",
					"consecutive", idle,
					"threshold", threshold,
					"remaining", result.Remaining)
			}
			if idle >= threshold {
				summary.State = StateStalled
			}
		}

		summary.Elapsed = time.Since(start)
		progress(summary)
	}

	r.finish(ctx, summary, nil)
	return summary, nil
}

func (r *Runner) finish(ctx context.Context, summary RunSummary, err error) {
	r.observer.RunFinished(summary)

	attrs := []any{
		"state", summary.State,
		"total_processed", summary.TotalProcessed,
		"total_failed", summary.TotalFailed,
		"last_remaining", summary.LastRemaining,
		"batches", summary.Batches,
		"duration_ms", summary.Elapsed.Milliseconds(),
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "enrichment run failed", append(attrs, "error", err)...)
		return
	}
	r.logger.InfoContext(ctx, "enrichment run finished", attrs...)
}
