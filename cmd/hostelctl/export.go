package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/sheets"
)

func exportCmd() *cobra.Command {
	var toSheet bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the weekly summary to CSV and optionally the summary sheet",
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

			path, err := runner.ExportWeeklyCSV(from, to)
			if err != nil {
				return err
			}
			fmt.Println(path)

			if !toSheet {
				return nil
			}
			if cfg.SummarySpreadsheetID == "" {
				return fmt.Errorf("SUMMARY_SPREADSHEET_ID is not set")
			}
			sc, err := sheets.NewClient(ctx, sheets.ExtractSpreadsheetID(cfg.SummarySpreadsheetID), cfg.GoogleSheetsCredentials, logger)
			if err != nil {
				return err
			}
			n, err := runner.ExportWeeklySheet(ctx, sc, from, to)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d rows to tab %q.\n", n, cfg.SummarySheetTab)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toSheet, "sheet", false, "Also write the Google Sheets summary tab")
	return cmd
}
