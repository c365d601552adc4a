package main

import (
	"fmt"

	"github.com/phrazzld/memo-tagger/internal/service/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(state *cliState) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtService, err := auth.NewJWTService(state.cfg.Auth)
			if err != nil {
				return err
			}
			token, err := jwtService.GenerateToken(cmd.Context(), subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "client name recorded in the token")
	return cmd
}
