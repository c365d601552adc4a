package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/memo-tagger/internal/app"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/spf13/cobra"
)

type enrichFlags struct {
	batchSize      int
	concurrency    int
	from           string
	to             string
	stallThreshold int
	once           bool
}

func newEnrichCmd(state *cliState) *cobra.Command {
	var flags enrichFlags

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Tag every untagged memo, batch after batch",
		Long: `Runs enrichment batches in the foreground until no untagged memos are
left, progress stalls, or the run is interrupted. The first Ctrl-C stops
the run after the current batch; a second one aborts the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd.Context(), state, flags, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.batchSize, "batch-size", 0, "memos per batch (default from config)")
	f.IntVar(&flags.concurrency, "concurrency", 0, "classifier calls in flight (default from config)")
	f.StringVar(&flags.from, "from", "", "only memos created on or after this day (YYYY-MM-DD)")
	f.StringVar(&flags.to, "to", "", "only memos created on or before this day (YYYY-MM-DD)")
	f.IntVar(&flags.stallThreshold, "stall-threshold", 0, "batches without progress before giving up (default from config)")
	f.BoolVar(&flags.once, "once", false, "run a single batch and exit")
	return cmd
}

// resolve fills zero flags from the configured defaults.
func (f enrichFlags) resolve(state *cliState) (enrichment.RunOptions, error) {
	defaults := state.cfg.Enrichment

	loc, err := time.LoadLocation(defaults.Timezone)
	if err != nil {
		return enrichment.RunOptions{}, fmt.Errorf("invalid timezone %q: %w", defaults.Timezone, err)
	}
	window, err := domain.ParseWindow(f.from, f.to, loc)
	if err != nil {
		return enrichment.RunOptions{}, fmt.Errorf("%w: %v", enrichment.ErrInvalidOptions, err)
	}

	opts := enrichment.RunOptions{
		BatchOptions: enrichment.BatchOptions{
			BatchSize:   orDefault(f.batchSize, defaults.BatchSize),
			Concurrency: enrichment.CapConcurrency(orDefault(f.concurrency, defaults.Concurrency), defaults.MaxConcurrency),
			Window:      window,
		},
		StallThreshold: orDefault(f.stallThreshold, defaults.StallThreshold),
	}
	return opts, opts.Validate()
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func runEnrich(ctx context.Context, state *cliState, flags enrichFlags, out io.Writer) error {
	opts, err := flags.resolve(state)
	if err != nil {
		return err
	}

	// ctx is cancelled by the second interrupt only.
	ctx, abort := context.WithCancel(ctx)
	defer abort()

	db, err := app.OpenDatabase(ctx, state.cfg.Database, state.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := app.NewPipeline(ctx, state.cfg, db, state.logger)
	if err != nil {
		return err
	}

	if flags.once {
		result, err := pipeline.Enricher.RunBatch(ctx, opts.BatchOptions)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "processed=%d failed=%d quarantined=%d remaining=%d\n",
			result.Processed, result.Failed, result.Quarantined, result.Remaining)
		return nil
	}

	cancel := enrichment.NewCancelSignal()
	stopSignals := watchInterrupts(cancel, abort, out)
	defer stopSignals()

	summary, err := pipeline.Runner.Run(ctx, opts, cancel, func(p enrichment.Progress) {
		fmt.Fprintf(out, "batch %d: processed=%d failed=%d remaining=%d\n",
			p.Batches, p.TotalProcessed, p.TotalFailed, p.LastRemaining)
	})
	fmt.Fprintf(out, "%s after %d batches in %s: processed=%d failed=%d remaining=%d\n",
		summary.State, summary.Batches, summary.Elapsed.Round(time.Millisecond),
		summary.TotalProcessed, summary.TotalFailed, summary.LastRemaining)
	return err
}

// watchInterrupts raises cancel on the first SIGINT or SIGTERM and calls
// abort on the second. The returned func stops watching.
func watchInterrupts(cancel *enrichment.CancelSignal, abort context.CancelFunc, out io.Writer) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for count := 0; ; count++ {
			select {
			case <-done:
				return
			case <-sigCh:
				if count == 0 {
					fmt.Fprintln(out, "stopping after the current batch; interrupt again to abort")
					cancel.Raise()
					continue
				}
				abort()
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
