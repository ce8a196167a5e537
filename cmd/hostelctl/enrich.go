package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
)

func enrichCmd() *cobra.Command {
	var (
		properties string
		limit      int
		live       bool
		all        bool
		preview    int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look up detailed prices of API bookings (dry-run unless --live)",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := resolveRange(time.Now())
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(30 * time.Minute)
			defer cancel()

			res, err := runner.EnrichPrices(ctx, ingest.EnrichOptions{
				From:           from,
				To:             to,
				PropertyIDs:    splitIDs(properties),
				Limit:          limit,
				DryRun:         !live,
				MaxPreview:     preview,
				OnlyUnenriched: !all,
				Delay:          cfg.FetchDelay,
			})
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(res)
			}
			mode := "dry-run"
			if live {
				mode = "live"
			}
			fmt.Printf("Enrich (%s): checked %d, changed %d, unchanged %d, failed %d\n", mode, res.Checked, res.Enriched, res.Unchanged, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&properties, "properties", "", "Comma separated property ids (default: all)")
	cmd.Flags().IntVar(&limit, "limit", 500, "Maximum bookings to look up")
	cmd.Flags().BoolVar(&live, "live", false, "Write the enriched prices")
	cmd.Flags().BoolVar(&all, "all", false, "Include bookings enriched before")
	cmd.Flags().IntVar(&preview, "preview", 20, "How many changes to log")
	return cmd
}
