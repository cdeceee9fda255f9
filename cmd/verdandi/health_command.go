package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"verdandi/internal/config"
	"verdandi/internal/store"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the experiment database and summarize the portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				health, err := st.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(out, renderStatusLine("Database", boolKind(health.DatabaseExists), health.DBPath, colorize))
				if !health.DatabaseExists {
					return nil
				}
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(health.DatabaseReadable), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
				if len(health.MissingTables) > 0 {
					fmt.Fprintln(out, renderStatusLine("Tables", statusError,
						"missing "+strings.Join(health.MissingTables, ", "), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Tables", statusOK,
						fmt.Sprintf("%d present", len(health.TablesPresent)), colorize))
				}
				if health.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
				}

				summary, err := st.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Experiments", statusInfo,
					fmt.Sprintf("%d total, %d pending, %d running, %d awaiting review, %d failed, %d completed",
						summary.Total, summary.Pending, summary.Running,
						summary.AwaitingReview, summary.Failed, summary.Completed), colorize))
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
