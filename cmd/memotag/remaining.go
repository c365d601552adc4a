package main

import (
	"fmt"
	"time"

	"github.com/phrazzld/memo-tagger/internal/app"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newRemainingCmd(state *cliState) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "remaining",
		Short: "Print the number of untagged memos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			loc, err := time.LoadLocation(state.cfg.Enrichment.Timezone)
			if err != nil {
				return err
			}
			window, err := domain.ParseWindow(from, to, loc)
			if err != nil {
				return err
			}

			db, err := app.OpenDatabase(ctx, state.cfg.Database, state.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			locator, err := app.NewLocator(state.cfg.Enrichment,
				postgres.NewPostgresMemoStore(db, state.logger),
				postgres.NewPostgresTagStore(db, state.logger))
			if err != nil {
				return err
			}

			n, err := locator.RemainingCount(ctx, window)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day to count (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day to count (YYYY-MM-DD)")
	return cmd
}
