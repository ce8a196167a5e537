// Package metrics reduces a property's bookings for one week into WeeklyMetrics.
package metrics

import (
	"strings"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultCancelledKeyword = "cancel"
	DefaultDirectKeyword    = "website"

	ExtendedStayNights = 7
	LongTermNights     = 28
)

type Aggregator struct {
	CancelledKeyword string
	DirectKeyword    string
}

func NewAggregator(cancelledKeyword, directKeyword string) Aggregator {
	if strings.TrimSpace(cancelledKeyword) == "" {
		cancelledKeyword = DefaultCancelledKeyword
	}
	return Aggregator{
		CancelledKeyword: cancelledKeyword,
		DirectKeyword:    directKeyword,
	}
}

// Aggregate uses the default keywords.
func Aggregate(bookings []models.Booking) models.WeeklyMetrics {
	return NewAggregator(DefaultCancelledKeyword, DefaultDirectKeyword).Aggregate(bookings)
}

// Aggregate is order independent: every sum is over integers or exact decimals.
func (a Aggregator) Aggregate(bookings []models.Booking) models.WeeklyMetrics {
	m := models.WeeklyMetrics{
		Revenue:       decimal.Zero,
		ADR:           decimal.Zero,
		DirectRevenue: decimal.Zero,
	}

	var leadSum int
	for _, b := range bookings {
		m.Count++
		if ContainsFold(b.Status, a.CancelledKeyword) {
			m.CancelledCount++
			continue
		}

		m.ValidCount++
		m.Revenue = m.Revenue.Add(b.Price)
		m.Nights += b.Nights
		leadSum += b.LeadTime

		if b.Nights >= ExtendedStayNights {
			m.ExtendedStayCount++
		}
		if b.Nights >= LongTermNights {
			m.LongTermCount++
		}
		if a.DirectKeyword != "" && ContainsFold(b.Channel, a.DirectKeyword) {
			m.DirectCount++
			m.DirectRevenue = m.DirectRevenue.Add(b.Price)
		}
	}

	nights := m.Nights
	if nights < 1 {
		nights = 1
	}
	m.ADR = m.Revenue.Div(decimal.NewFromInt(int64(nights))).Round(2)

	if m.ValidCount > 0 {
		valid := float64(m.ValidCount)
		m.ExtendedStayPct = 100 * float64(m.ExtendedStayCount) / valid
		m.LongTermPct = 100 * float64(m.LongTermCount) / valid
		m.AvgLeadTime = float64(leadSum) / valid
	}

	return m
}

// IsCancelled reports whether status carries the cancellation keyword.
func (a Aggregator) IsCancelled(b models.Booking) bool {
	return ContainsFold(b.Status, a.CancelledKeyword)
}

// FilterByChannel keeps bookings whose channel contains keyword, ignoring case.
// An empty keyword keeps everything.
func FilterByChannel(bookings []models.Booking, keyword string) []models.Booking {
	if strings.TrimSpace(keyword) == "" {
		return bookings
	}
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if ContainsFold(b.Channel, keyword) {
			out = append(out, b)
		}
	}
	return out
}

func ContainsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
