package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"verdandi/internal/config"
	"verdandi/internal/reservation"
	"verdandi/internal/store"
)

func newReservationsCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List topic reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				manager := ctx.newReservations(cfg, st)

				expired, err := manager.ExpireStale(cmd.Context())
				if err != nil {
					return err
				}
				if expired > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Expired %d stale reservation(s)\n", expired)
				}

				var reservations []reservation.Reservation
				if showAll {
					reservations, err = manager.ListAll(cmd.Context())
				} else {
					reservations, err = manager.ListActive(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(reservations) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No reservations")
					return nil
				}

				rows := make([][]string, 0, len(reservations))
				for _, res := range reservations {
					rows = append(rows, []string{
						truncate(res.TopicKey, titleColumnWidth),
						string(res.Status),
						res.WorkerID,
						res.Category,
						formatTime(res.ReservedAt),
						formatTime(res.ExpiresAt),
					})
				}
				table := renderTable(
					[]string{"Topic", "Status", "Worker", "Category", "Reserved", "Expires"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Include expired, released, and completed reservations")
	return cmd
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	var completed bool

	cmd := &cobra.Command{
		Use:   "release <topic-key>",
		Short: "Release this worker's claim on a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				manager := ctx.newReservations(cfg, st)
				released, err := manager.Release(cmd.Context(), cfg.Worker.ID, args[0], completed)
				if err != nil {
					return err
				}
				if !released {
					return fmt.Errorf("no active reservation on %q held by %s", args[0], cfg.Worker.ID)
				}
				if completed {
					fmt.Fprintf(cmd.OutOrStdout(), "Retired %s permanently\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Released %s\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Retire the topic permanently instead of freeing it")
	return cmd
}

func newRenewCommand(ctx *commandContext) *cobra.Command {
	var ttlHours int

	cmd := &cobra.Command{
		Use:   "renew <topic-key>",
		Short: "Extend this worker's claim on a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				manager := ctx.newReservations(cfg, st)
				renewed, err := manager.Renew(cmd.Context(), cfg.Worker.ID, args[0], ttlHours)
				if err != nil {
					return err
				}
				if !renewed {
					return fmt.Errorf("no active reservation on %q held by %s", args[0], cfg.Worker.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renewed %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "New TTL in hours (defaults to configuration)")
	return cmd
}
