package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

func fetchCmd() *cobra.Command {
	var properties string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch bookings from the PMS API and merge the weekly metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := resolveRange(time.Now())
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(30 * time.Minute)
			defer cancel()

			var sum orchestrator.Summary
			if ids := splitIDs(properties); len(ids) > 0 {
				sum, err = runner.FetchProperties(ctx, ids, from, to)
			} else {
				sum, err = runner.RunWeeklyFetch(ctx, from, to)
			}
			if err != nil {
				return err
			}
			return reportSummary(sum)
		},
	}

	cmd.Flags().StringVar(&properties, "properties", "", "Comma separated property ids (default: all)")
	return cmd
}

func retryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Re-fetch the properties that failed in the last API batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(30 * time.Minute)
			defer cancel()

			sum, err := runner.RetryLastFailed(ctx)
			if errors.Is(err, ingest.ErrNothingToRetry) {
				fmt.Println("Nothing to retry.")
				return nil
			}
			if err != nil {
				return err
			}
			return reportSummary(sum)
		},
	}
}

func reportSummary(sum orchestrator.Summary) error {
	if outputJSON {
		return writeJSON(sum)
	}
	if ids := sum.FailedPropertyIDs(); len(ids) > 0 {
		fmt.Printf("Failed: %v. Run `hostelctl retry` to fetch them again.\n", ids)
	}
	return nil
}
