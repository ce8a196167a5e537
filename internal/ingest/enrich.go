package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/pms"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/repos"
)

type EnrichOptions struct {
	From, To    time.Time
	PropertyIDs []string

	// Limit caps detail lookups per run.
	Limit int
	// DryRun only logs what would change.
	DryRun bool
	// MaxPreview is how many changes are logged.
	MaxPreview int
	// OnlyUnenriched skips bookings enriched by an earlier run.
	OnlyUnenriched bool
	// Delay is slept between lookups.
	Delay time.Duration
}

type EnrichResult struct {
	Checked   int
	Enriched  int
	Unchanged int
	Failed    int
}

// EnrichPrices looks up the detailed price of API bookings in the range and
// queues a narrow update for each one that differs. The updates run behind
// every bulk write already queued, so a later bulk upsert cannot undo them.
func (r *Runner) EnrichPrices(ctx context.Context, opts EnrichOptions) (EnrichResult, error) {
	var res EnrichResult
	if r.Details == nil {
		return res, fmt.Errorf("enrich: no detail source configured")
	}
	if opts.Limit <= 0 {
		opts.Limit = 500
	}
	if opts.MaxPreview <= 0 {
		opts.MaxPreview = 20
	}
	if opts.From.IsZero() || opts.To.IsZero() {
		opts.From, opts.To = LastWeek(time.Now())
	}
	if opts.PropertyIDs == nil {
		opts.PropertyIDs = models.PropertyIDs(r.Cfg.Properties)
	}

	if err := r.Writer.Flush(ctx); err != nil {
		return res, err
	}
	rows, err := r.Sync.LoadBookings(ctx, opts.From, opts.To, repos.BookingFilter{
		PropertyIDs:    opts.PropertyIDs,
		Origin:         models.OriginAPI,
		OnlyUnenriched: opts.OnlyUnenriched,
	})
	if err != nil {
		return res, fmt.Errorf("enrich: load bookings: %w", err)
	}
	if len(rows) > opts.Limit {
		r.Logger.Printf("⚠️ enrich: %d bookings in range, checking first %d", len(rows), opts.Limit)
		rows = rows[:opts.Limit]
	}

	r.Logger.Printf("▶️ Enrich dry-run=%v: checking %d bookings", opts.DryRun, len(rows))
	previewed := 0

	for i, b := range rows {
		select {
		case <-ctx.Done():
			r.Logger.Printf("⏹ enrich cancelled after %d bookings", res.Checked)
			return res, ctx.Err()
		default:
		}
		if i > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}

		res.Checked++
		d, err := r.Details.FetchReservationDetail(ctx, b.PropertyID, b.ExternalID)
		if err != nil {
			res.Failed++
			r.Logger.Printf("⚠️ enrich property=%s reservation=%s: %v (%s)", b.PropertyID, b.ExternalID, err, pms.KindOf(err))
			continue
		}

		e := enrichmentFor(b, d)
		if e.Empty() {
			res.Unchanged++
			continue
		}

		if previewed < opts.MaxPreview {
			previewed++
			r.Logger.Printf("   ↳ property=%s reservation=%s price %s → %s", b.PropertyID, b.ExternalID, b.Price.StringFixed(2), priceString(e, b))
		}
		if opts.DryRun {
			res.Enriched++
			continue
		}
		if err := r.Persister.EnqueueEnrichment(b.PropertyID, b.ExternalID, e); err != nil {
			res.Failed++
			r.Logger.Printf("❌ enrich property=%s reservation=%s: %v", b.PropertyID, b.ExternalID, err)
			continue
		}
		res.Enriched++
	}

	r.Logger.Printf("✅ Enrich done: checked=%d enriched=%d unchanged=%d failed=%d", res.Checked, res.Enriched, res.Unchanged, res.Failed)

	if opts.DryRun || res.Enriched == 0 {
		return res, nil
	}
	if _, err := r.RebuildWeeks(ctx, opts.From, opts.To); err != nil {
		return res, err
	}
	return res, nil
}

// enrichmentFor keeps only the fields of d that change b. A breakdown is
// always stored with a changed price.
func enrichmentFor(b models.Booking, d pms.ReservationDetail) models.Enrichment {
	var e models.Enrichment
	if d.Total != nil && !d.Total.Equal(b.Price) {
		e.Price = d.Total
		if len(d.Breakdown) > 0 {
			e.PriceBreakdown = []byte(d.Breakdown)
		}
	}
	if d.Status != "" && d.Status != b.Status {
		s := d.Status
		e.Status = &s
	}
	if d.Channel != "" && d.Channel != b.Channel {
		c := d.Channel
		e.Channel = &c
	}
	return e
}

func priceString(e models.Enrichment, b models.Booking) string {
	if e.Price == nil {
		return b.Price.StringFixed(2)
	}
	return e.Price.StringFixed(2)
}
