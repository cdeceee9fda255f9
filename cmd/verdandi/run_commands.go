package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"verdandi/internal/config"
	"verdandi/internal/steps"
	"verdandi/internal/store"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var maxIdeas int
	var strategyName string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover new ideas and create pending experiments",
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := parseStrategy(strategyName)
			if err != nil {
				return err
			}
			return ctx.withWorkerLock(func(cfg *config.Config, st *store.Store) error {
				runner, err := ctx.newRunner(cfg, st, false)
				if err != nil {
					return err
				}
				ids, err := runner.RunDiscoveryBatch(cmd.Context(), maxIdeas, strategy)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "No unique ideas discovered")
					return nil
				}
				fmt.Fprintf(out, "Created %d experiment(s):\n", len(ids))
				for _, id := range ids {
					exp, err := st.GetExperiment(cmd.Context(), id)
					if err != nil || exp == nil {
						fmt.Fprintf(out, "  #%d\n", id)
						continue
					}
					fmt.Fprintf(out, "  #%d %s\n", id, exp.Title)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&maxIdeas, "max-ideas", "n", 0, "Number of ideas to discover (defaults to configuration)")
	cmd.Flags().StringVar(&strategyName, "strategy", "", "Force a discovery strategy (disruption or moonshot)")
	return cmd
}

func parseStrategy(name string) (*steps.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, nil
	case string(steps.DiscoveryDisruption):
		strategy := steps.DisruptionStrategy
		return &strategy, nil
	case string(steps.DiscoveryMoonshot):
		strategy := steps.MoonshotStrategy
		return &strategy, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (expected disruption or moonshot)", name)
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var stopAfter int
	var trial bool

	cmd := &cobra.Command{
		Use:   "run <experiment-id>",
		Short: "Run one experiment through the remaining pipeline stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExperimentID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runner, err := ctx.newRunner(cfg, st, trial)
				if err != nil {
					return err
				}
				if err := runner.RunExperiment(cmd.Context(), id, stopAfter); err != nil {
					return err
				}
				exp, err := st.GetExperiment(cmd.Context(), id)
				if err != nil || exp == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Experiment #%d is now %s (step %d)\n",
					exp.ID, exp.Status, exp.CurrentStep)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&stopAfter, "stop-after", 0, "Stop once this stage number completes (0 runs to the end)")
	cmd.Flags().BoolVar(&trial, "trial", false, "Trial mode: bypass the human review gate")
	return cmd
}

func newRunAllCommand(ctx *commandContext) *cobra.Command {
	var stopAfter int
	var trial bool

	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run every pending and approved experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkerLock(func(cfg *config.Config, st *store.Store) error {
				runner, err := ctx.newRunner(cfg, st, trial)
				if err != nil {
					return err
				}
				succeeded, err := runner.RunAllPending(cmd.Context(), stopAfter)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d experiment(s) ran without error\n", succeeded)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&stopAfter, "stop-after", 0, "Stop each experiment once this stage number completes")
	cmd.Flags().BoolVar(&trial, "trial", false, "Trial mode: bypass the human review gate")
	return cmd
}
