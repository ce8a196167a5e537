package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyMetrics summarises one property's bookings for one week.
// It is an immutable snapshot: recomputation replaces it, never mutates it.
type WeeklyMetrics struct {
	Count          int `json:"count"`
	CancelledCount int `json:"cancelledCount"`
	ValidCount     int `json:"validCount"`

	Revenue decimal.Decimal `json:"revenue"`
	ADR     decimal.Decimal `json:"adr"`
	Nights  int             `json:"nights"`

	ExtendedStayCount int     `json:"extendedStayCount"`
	LongTermCount     int     `json:"longTermCount"`
	ExtendedStayPct   float64 `json:"extendedStayPct"`
	LongTermPct       float64 `json:"longTermPct"`

	AvgLeadTime float64 `json:"avgLeadTime"`

	DirectCount   int             `json:"directCount"`
	DirectRevenue decimal.Decimal `json:"directRevenue"`
}

// Equal compares two snapshots value by value.
func (m WeeklyMetrics) Equal(o WeeklyMetrics) bool {
	return m.Count == o.Count &&
		m.CancelledCount == o.CancelledCount &&
		m.ValidCount == o.ValidCount &&
		m.Revenue.Equal(o.Revenue) &&
		m.ADR.Equal(o.ADR) &&
		m.Nights == o.Nights &&
		m.ExtendedStayCount == o.ExtendedStayCount &&
		m.LongTermCount == o.LongTermCount &&
		m.ExtendedStayPct == o.ExtendedStayPct &&
		m.LongTermPct == o.LongTermPct &&
		m.AvgLeadTime == o.AvgLeadTime &&
		m.DirectCount == o.DirectCount &&
		m.DirectRevenue.Equal(o.DirectRevenue)
}

// WeekRecord holds every property's metrics for one Monday-based week.
type WeekRecord struct {
	WeekLabel  string                   `json:"weekLabel"`
	WeekStart  time.Time                `json:"weekStart"`
	Properties map[string]WeeklyMetrics `json:"properties"`
}

// Ordered returns the metrics in the given property order, skipping
// properties the week does not hold.
func (w WeekRecord) Ordered(order []string) []PropertyMetrics {
	out := make([]PropertyMetrics, 0, len(w.Properties))
	for _, id := range order {
		if m, ok := w.Properties[id]; ok {
			out = append(out, PropertyMetrics{PropertyID: id, Metrics: m})
		}
	}
	return out
}

type PropertyMetrics struct {
	PropertyID string
	Metrics    WeeklyMetrics
}

// WeeklySummary is the stored form of WeeklyMetrics, keyed by (property_id, week_start).
type WeeklySummary struct {
	ID int64 `gorm:"primaryKey;column:id"`

	PropertyID string    `gorm:"column:property_id;size:64;uniqueIndex:idx_weekly_property_week,priority:1"`
	WeekStart  time.Time `gorm:"column:week_start;uniqueIndex:idx_weekly_property_week,priority:2"`
	WeekEnd    time.Time `gorm:"column:week_end"`
	WeekLabel  string    `gorm:"column:week_label;size:64"`

	BookingCount      int             `gorm:"column:booking_count"`
	CancelledCount    int             `gorm:"column:cancelled_count"`
	ValidCount        int             `gorm:"column:valid_count"`
	Revenue           decimal.Decimal `gorm:"column:revenue;type:decimal(14,2)"`
	ADR               decimal.Decimal `gorm:"column:adr;type:decimal(14,2)"`
	Nights            int             `gorm:"column:nights"`
	ExtendedStayCount int             `gorm:"column:extended_stay_count"`
	LongTermCount     int             `gorm:"column:long_term_count"`
	ExtendedStayPct   float64         `gorm:"column:extended_stay_pct"`
	LongTermPct       float64         `gorm:"column:long_term_pct"`
	AvgLeadTime       float64         `gorm:"column:avg_lead_time"`
	DirectCount       int             `gorm:"column:direct_count"`
	DirectRevenue     decimal.Decimal `gorm:"column:direct_revenue;type:decimal(14,2)"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (WeeklySummary) TableName() string { return "weekly_summaries" }

func NewWeeklySummary(propertyID string, weekStart, weekEnd time.Time, label string, m WeeklyMetrics) WeeklySummary {
	return WeeklySummary{
		PropertyID:        propertyID,
		WeekStart:         weekStart,
		WeekEnd:           weekEnd,
		WeekLabel:         label,
		BookingCount:      m.Count,
		CancelledCount:    m.CancelledCount,
		ValidCount:        m.ValidCount,
		Revenue:           m.Revenue,
		ADR:               m.ADR,
		Nights:            m.Nights,
		ExtendedStayCount: m.ExtendedStayCount,
		LongTermCount:     m.LongTermCount,
		ExtendedStayPct:   m.ExtendedStayPct,
		LongTermPct:       m.LongTermPct,
		AvgLeadTime:       m.AvgLeadTime,
		DirectCount:       m.DirectCount,
		DirectRevenue:     m.DirectRevenue,
	}
}

func (s WeeklySummary) Metrics() WeeklyMetrics {
	return WeeklyMetrics{
		Count:             s.BookingCount,
		CancelledCount:    s.CancelledCount,
		ValidCount:        s.ValidCount,
		Revenue:           s.Revenue,
		ADR:               s.ADR,
		Nights:            s.Nights,
		ExtendedStayCount: s.ExtendedStayCount,
		LongTermCount:     s.LongTermCount,
		ExtendedStayPct:   s.ExtendedStayPct,
		LongTermPct:       s.LongTermPct,
		AvgLeadTime:       s.AvgLeadTime,
		DirectCount:       s.DirectCount,
		DirectRevenue:     s.DirectRevenue,
	}
}
