package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
)

func reloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Load stored weekly metrics for the range into the weekly view",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := resolveRange(time.Now())
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(5 * time.Minute)
			defer cancel()

			n, err := runner.ReloadWeeks(ctx, from, to)
			if err != nil {
				return err
			}
			fmt.Printf("Reloaded %d weeks.\n", n)
			return nil
		},
	}
}

func rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute weekly metrics for the range from stored bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := resolveRange(time.Now())
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(10 * time.Minute)
			defer cancel()

			updates, err := runner.RebuildWeeks(ctx, from, to)
			if err != nil {
				return err
			}
			fmt.Printf("Rebuilt %d weeks.\n", len(updates))
			return nil
		},
	}
}

func weeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "Show stored weekly metrics per property",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := resolveRange(time.Now())
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(5 * time.Minute)
			defer cancel()

			if _, err := runner.ReloadWeeks(ctx, from, to); err != nil {
				return err
			}
			weeks := runner.Store.Range(from, to)
			if outputJSON {
				return writeJSON(weeks)
			}
			if len(weeks) == 0 {
				fmt.Println("No weeks stored for this range.")
				return nil
			}

			rows := ingest.SummaryRows(weeks, cfg.Properties)
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, row := range rows {
				// Week, Property, Bookings, Cancelled, Revenue, ADR, Nights, Direct
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					row[0], row[2], row[3], row[4], row[6], row[7], row[8], row[12])
			}
			return tw.Flush()
		},
	}
}
