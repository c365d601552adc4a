package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/platform/logger"
	"github.com/spf13/cobra"
)

// cliState is filled by the root command before any subcommand runs.
type cliState struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:           "memotag",
		Short:         "Tag memos with LLM-suggested labels",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(state.configPath)
			if err != nil {
				return err
			}
			log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}
			state.cfg = cfg
			state.logger = log
			return nil
		},
	}

	root.PersistentFlags().StringVar(&state.configPath, "config", "",
		"config file (default ./config.yaml, environment MEMOTAG_* overrides)")

	root.AddCommand(
		newEnrichCmd(state),
		newRemainingCmd(state),
		newMigrateCmd(state),
		newTokenCmd(state),
	)
	return root
}
