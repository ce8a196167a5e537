package orchestrator

import (
	"sort"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/metrics"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/weekly"
)

// WeeklyUpdates buckets bookings by the Monday of their booking date and
// aggregates each (week, property) pair. Every property in propertyIDs gets
// an entry for every week touched by [from, to], zero-valued when it had no
// bookings that week. Zero from/to limits the weeks to those bookings touch.
func WeeklyUpdates(bookings []models.Booking, propertyIDs []string, from, to time.Time, agg metrics.Aggregator) []weekly.Update {
	if len(propertyIDs) == 0 {
		return nil
	}

	grouped := make(map[time.Time]map[string][]models.Booking)
	var weeks []time.Time
	addWeek := func(w time.Time) {
		if _, ok := grouped[w]; !ok {
			grouped[w] = make(map[string][]models.Booking)
			weeks = append(weeks, w)
		}
	}

	if !from.IsZero() && !to.IsZero() {
		for _, w := range dates.WeeksBetween(from, to) {
			addWeek(w)
		}
	}

	wanted := make(map[string]bool, len(propertyIDs))
	for _, id := range propertyIDs {
		wanted[id] = true
	}

	for _, b := range bookings {
		if !wanted[b.PropertyID] {
			continue
		}
		w := dates.WeekStart(b.BookingDate)
		addWeek(w)
		grouped[w][b.PropertyID] = append(grouped[w][b.PropertyID], b)
	}

	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	out := make([]weekly.Update, 0, len(weeks))
	for _, w := range weeks {
		props := make(map[string]models.WeeklyMetrics, len(propertyIDs))
		for _, id := range propertyIDs {
			props[id] = agg.Aggregate(grouped[w][id])
		}
		out = append(out, weekly.Update{
			WeekStart:  w,
			WeekLabel:  dates.WeekLabel(w),
			Properties: props,
		})
	}
	return out
}

// KeepEnriched copies the detail price of every enriched booking in stored
// onto the fetched booking with the same property and reservation id. The
// bulk listing price is never allowed to replace an enriched one.
func KeepEnriched(fetched, stored []models.Booking) []models.Booking {
	if len(stored) == 0 {
		return fetched
	}
	type key struct{ property, external string }
	enriched := make(map[key]models.Booking, len(stored))
	for _, b := range stored {
		if b.EnrichedAt != nil {
			enriched[key{b.PropertyID, b.ExternalID}] = b
		}
	}
	if len(enriched) == 0 {
		return fetched
	}

	out := make([]models.Booking, len(fetched))
	for i, b := range fetched {
		if e, ok := enriched[key{b.PropertyID, b.ExternalID}]; ok {
			b.Price = e.Price
			b.PriceBreakdown = e.PriceBreakdown
			b.EnrichedAt = e.EnrichedAt
		}
		out[i] = b
	}
	return out
}
