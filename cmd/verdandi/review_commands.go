package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"verdandi/internal/config"
	"verdandi/internal/store"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Approve or reject experiments awaiting human review",
	}

	reviewCmd.AddCommand(newReviewDecisionCommand(ctx, "approve", store.StatusApproved,
		"Approve an experiment so the pipeline can continue"))
	reviewCmd.AddCommand(newReviewDecisionCommand(ctx, "reject", store.StatusRejected,
		"Reject an experiment, ending its pipeline"))

	return reviewCmd
}

func newReviewDecisionCommand(ctx *commandContext, use string, decision store.Status, short string) *cobra.Command {
	var reviewer string
	var notes string

	cmd := &cobra.Command{
		Use:   use + " <experiment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExperimentID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if reviewer == "" {
					reviewer = cfg.Worker.ID
				}
				if err := st.SetExperimentReview(cmd.Context(), id, decision, reviewer, notes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Experiment #%d %s by %s\n", id, decision, reviewer)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer identity (defaults to the worker id)")
	cmd.Flags().StringVar(&notes, "notes", "", "Review notes")
	return cmd
}
