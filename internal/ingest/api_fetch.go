package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

// ErrNothingToRetry is returned when the previous batch had no failed properties.
var ErrNothingToRetry = errors.New("no failed properties to retry")

// LastWeek returns the Monday..Sunday before the week containing now.
func LastWeek(now time.Time) (from, to time.Time) {
	from = dates.WeekStart(now).AddDate(0, 0, -7)
	return from, dates.WeekEnd(from)
}

// RunWeeklyFetch fetches every configured property for [from, to].
func (r *Runner) RunWeeklyFetch(ctx context.Context, from, to time.Time) (orchestrator.Summary, error) {
	r.Logger.Printf("▶️ Weekly fetch %s .. %s for %d properties", from.Format(dates.Layout), to.Format(dates.Layout), len(r.Cfg.Properties))
	sum, err := r.Orchestrator.Run(ctx, r.Cfg.Properties, from, to)
	if err != nil {
		return sum, fmt.Errorf("weekly fetch: %w", err)
	}
	r.Logger.Printf("✅ Weekly fetch done: %s", sum)
	return sum, nil
}

// FetchProperties runs a batch for the given property ids, in roster order.
func (r *Runner) FetchProperties(ctx context.Context, ids []string, from, to time.Time) (orchestrator.Summary, error) {
	props, err := r.selectProperties(ids)
	if err != nil {
		return orchestrator.Summary{}, err
	}
	return r.Orchestrator.Run(ctx, props, from, to)
}

// RetryFailed re-runs only the properties that failed in prev.
func (r *Runner) RetryFailed(ctx context.Context, prev orchestrator.Summary, from, to time.Time) (orchestrator.Summary, error) {
	ids := prev.FailedPropertyIDs()
	if len(ids) == 0 {
		return orchestrator.Summary{}, ErrNothingToRetry
	}
	r.Logger.Printf("🔁 Retrying %d failed properties from batch %s", len(ids), prev.BatchID)
	return r.FetchProperties(ctx, ids, from, to)
}

// RetryLastFailed re-runs the failed properties of the newest stored API batch,
// over that batch's range.
func (r *Runner) RetryLastFailed(ctx context.Context) (orchestrator.Summary, error) {
	if err := r.Writer.Flush(ctx); err != nil {
		return orchestrator.Summary{}, err
	}
	last, ok, err := r.Sync.LastImport(ctx, models.OriginAPI)
	if err != nil {
		return orchestrator.Summary{}, err
	}
	if !ok {
		return orchestrator.Summary{}, ErrNothingToRetry
	}
	ids := last.Failed()
	if len(ids) == 0 {
		return orchestrator.Summary{}, ErrNothingToRetry
	}
	r.Logger.Printf("🔁 Retrying %d failed properties from batch %s", len(ids), last.ID)
	return r.FetchProperties(ctx, ids, last.RangeStart, last.RangeEnd)
}

func (r *Runner) selectProperties(ids []string) ([]models.Property, error) {
	if len(ids) == 0 {
		return nil, orchestrator.ErrNoProperties
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.Cfg.Property(id); !ok {
			return nil, fmt.Errorf("unknown property %q", id)
		}
		want[id] = true
	}

	out := make([]models.Property, 0, len(ids))
	for _, p := range r.Cfg.Properties {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}
