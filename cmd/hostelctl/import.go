package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/sheets"
)

func importCmd() *cobra.Command {
	var property string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bookings from a spreadsheet export, a Google Sheet or pasted text",
	}
	cmd.PersistentFlags().StringVar(&property, "property", "", "Property id the rows belong to (default: read from a property column)")

	csvCmd := &cobra.Command{
		Use:   "csv <file>...",
		Short: "Import CSV spreadsheet exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(10 * time.Minute)
			defer cancel()

			for _, path := range args {
				res, err := runner.ImportCSVFile(ctx, path, property)
				if err != nil {
					return err
				}
				if err := reportImport(path, res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	pasteCmd := &cobra.Command{
		Use:   "paste [file]",
		Short: "Import a pasted table (tab separated, CSV or HTML) from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			ctx, cancel := commandContext(10 * time.Minute)
			defer cancel()

			res, err := runner.ImportPasteFile(ctx, path, property)
			if err != nil {
				return err
			}
			return reportImport("paste", res)
		},
	}

	var spreadsheet string
	sheetCmd := &cobra.Command{
		Use:   "sheet <range>",
		Short: "Import a Google Sheets range, e.g. 'Bookings!A1:J'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sheets.ExtractSpreadsheetID(spreadsheet)
			if id == "" {
				return fmt.Errorf("--spreadsheet is required")
			}
			ctx, cancel := commandContext(10 * time.Minute)
			defer cancel()

			sc, err := sheets.NewClient(ctx, id, cfg.GoogleSheetsCredentials, logger)
			if err != nil {
				return err
			}
			res, err := runner.ImportSheet(ctx, sc, args[0], property)
			if err != nil {
				return err
			}
			return reportImport(args[0], res)
		},
	}
	sheetCmd.Flags().StringVar(&spreadsheet, "spreadsheet", "", "Spreadsheet id or URL")

	cmd.AddCommand(csvCmd, pasteCmd, sheetCmd)
	return cmd
}

func reportImport(source string, res ingest.ImportResult) error {
	if outputJSON {
		return writeJSON(res)
	}
	fmt.Printf("%s: %d bookings imported, %d skipped, weeks %v\n", source, res.Records, res.Skipped, res.Weeks)
	return nil
}
