package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"verdandi/internal/config"
	"verdandi/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List experiments",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFilters)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				experiments, err := st.ListExperiments(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(experiments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No experiments")
					return nil
				}

				rows := make([][]string, 0, len(experiments))
				for _, exp := range experiments {
					rows = append(rows, []string{
						fmt.Sprintf("%d", exp.ID),
						truncate(exp.Title, titleColumnWidth),
						string(exp.Status),
						fmt.Sprintf("%d", exp.CurrentStep),
						exp.WorkerID,
						formatTime(exp.UpdatedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Step", "Worker", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func parseStatusFilters(filters []string) ([]store.Status, error) {
	var statuses []store.Status
	for _, filter := range filters {
		status, ok := store.ParseStatus(filter)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", filter)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showPayloads bool

	cmd := &cobra.Command{
		Use:   "show <experiment-id>",
		Short: "Show one experiment with its stage results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExperimentID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				exp, err := st.GetExperiment(cmd.Context(), id)
				if err != nil {
					return err
				}
				if exp == nil {
					return fmt.Errorf("experiment %d not found", id)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Experiment #%d: %s\n", exp.ID, exp.Title)
				if exp.Summary != "" {
					fmt.Fprintf(out, "  %s\n", exp.Summary)
				}
				fmt.Fprintf(out, "  Status:  %s (step %d)\n", exp.Status, exp.CurrentStep)
				fmt.Fprintf(out, "  Worker:  %s\n", exp.WorkerID)
				fmt.Fprintf(out, "  Created: %s\n", formatTime(exp.CreatedAt))
				fmt.Fprintf(out, "  Updated: %s\n", formatTime(exp.UpdatedAt))
				if exp.ReviewerID != "" {
					fmt.Fprintf(out, "  Review:  %s by %s at %s\n",
						exp.ReviewNotes, exp.ReviewerID, formatOptionalTime(exp.ReviewedAt))
				}

				results, err := st.ListStageResults(cmd.Context(), exp.ID)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "  No stage results yet")
					return nil
				}
				fmt.Fprintln(out, "  Stages:")
				for _, result := range results {
					fmt.Fprintf(out, "    %d. %-16s %s\n",
						result.StageNumber, result.StageName, formatTime(result.CreatedAt))
					if showPayloads {
						fmt.Fprintln(out, indentJSON(result.Payload, "       "))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showPayloads, "payloads", false, "Include raw stage result payloads")
	return cmd
}

func indentJSON(payload, prefix string) string {
	var buf strings.Builder
	var pretty json.RawMessage
	indented := payload
	if err := json.Unmarshal([]byte(payload), &pretty); err == nil {
		if b, err := json.MarshalIndent(pretty, prefix, "  "); err == nil {
			indented = string(b)
		}
	}
	buf.WriteString(prefix)
	buf.WriteString(indented)
	return buf.String()
}

func newLogCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [experiment-id]",
		Short: "Show the orchestration event log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var events []*store.LogEvent
				var err error
				if len(args) == 1 {
					id, parseErr := parseExperimentID(args[0])
					if parseErr != nil {
						return parseErr
					}
					events, err = st.ListEvents(cmd.Context(), id, limit)
				} else {
					events, err = st.RecentEvents(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No events")
					return nil
				}

				rows := make([][]string, 0, len(events))
				for _, event := range events {
					rows = append(rows, []string{
						formatTime(event.CreatedAt),
						fmt.Sprintf("%d", event.ExperimentID),
						event.StageName,
						string(event.EventType),
						truncate(event.Message, 72),
					})
				}
				table := renderTable(
					[]string{"Time", "Exp", "Stage", "Event", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of events to show")
	return cmd
}
