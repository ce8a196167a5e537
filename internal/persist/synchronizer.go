// Package persist keeps the durable store in step with the weekly view.
// Writes are best-effort: failures are logged and surfaced in Status only.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/repos"
)

// UpsertResult reports a bulk booking write. Errors hold per-chunk or
// per-record failures; rows not listed there were saved.
type UpsertResult struct {
	SavedCount int
	Errors     []error
}

// Synchronizer is the read/write contract of the durable store.
type Synchronizer interface {
	UpsertBookings(ctx context.Context, bookings []models.Booking, propertyID string, origin models.Origin) UpsertResult
	UpsertWeeklyMetrics(ctx context.Context, propertyID string, weekStart, weekEnd time.Time, weekLabel string, m models.WeeklyMetrics) error
	RecordImport(ctx context.Context, a models.ImportAudit) error
	LoadBookings(ctx context.Context, from, to time.Time, f repos.BookingFilter) ([]models.Booking, error)
	LoadWeeklyMetrics(ctx context.Context, from, to time.Time) ([]models.WeekRecord, error)
	UpdateEnrichment(ctx context.Context, propertyID, externalID string, e models.Enrichment) error
	LastImport(ctx context.Context, origin models.Origin) (models.ImportAudit, bool, error)
}

// Store implements Synchronizer on the gorm repositories.
type Store struct {
	Bookings  *repos.BookingsRepo
	Weekly    *repos.WeeklyMetricsRepo
	Audits    *repos.ImportAuditRepo
	ChunkSize int
	lg        *log.Logger
}

func NewStore(db *gorm.DB, lg *log.Logger) *Store {
	return &Store{
		Bookings:  repos.NewBookingsRepo(db, lg),
		Weekly:    repos.NewWeeklyMetricsRepo(db, lg),
		Audits:    repos.NewImportAuditRepo(db, lg),
		ChunkSize: 500,
		lg:        lg,
	}
}

func (s *Store) UpsertBookings(ctx context.Context, bookings []models.Booking, propertyID string, origin models.Origin) UpsertResult {
	var res UpsertResult

	rows := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ExternalID == "" {
			res.Errors = append(res.Errors, errors.New("booking without external id"))
			continue
		}
		if propertyID != "" {
			if b.PropertyID != "" && b.PropertyID != propertyID {
				res.Errors = append(res.Errors, fmt.Errorf("booking %s belongs to %s, not %s", b.ExternalID, b.PropertyID, propertyID))
				continue
			}
			b.PropertyID = propertyID
		}
		if b.DataOrigin == "" {
			b.DataOrigin = origin
		}
		rows = append(rows, b)
	}

	size := s.ChunkSize
	if size <= 0 {
		size = 500
	}
	for i := 0; i < len(rows); i += size {
		end := i + size
		if end > len(rows) {
			end = len(rows)
		}
		n, err := s.Bookings.UpsertBatch(ctx, rows[i:end], size)
		res.SavedCount += n
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
	return res
}

func (s *Store) UpsertWeeklyMetrics(ctx context.Context, propertyID string, weekStart, weekEnd time.Time, weekLabel string, m models.WeeklyMetrics) error {
	start := dates.WeekStart(weekStart)
	if weekEnd.IsZero() {
		weekEnd = dates.WeekEnd(start)
	}
	if weekLabel == "" {
		weekLabel = dates.WeekLabel(start)
	}
	return s.Weekly.Upsert(ctx, models.NewWeeklySummary(propertyID, start, dates.DateOnly(weekEnd), weekLabel, m))
}

func (s *Store) RecordImport(ctx context.Context, a models.ImportAudit) error {
	return s.Audits.Create(ctx, &a)
}

func (s *Store) LoadBookings(ctx context.Context, from, to time.Time, f repos.BookingFilter) ([]models.Booking, error) {
	return s.Bookings.LoadRange(ctx, dates.DateOnly(from), dates.DateOnly(to), f)
}

// LoadWeeklyMetrics groups stored summaries into week records, ascending.
func (s *Store) LoadWeeklyMetrics(ctx context.Context, from, to time.Time) ([]models.WeekRecord, error) {
	rows, err := s.Weekly.LoadRange(ctx, dates.WeekStart(from), dates.WeekStart(to))
	if err != nil {
		return nil, err
	}

	var out []models.WeekRecord
	for _, r := range rows {
		start := dates.WeekStart(r.WeekStart)
		if n := len(out); n == 0 || !out[n-1].WeekStart.Equal(start) {
			label := r.WeekLabel
			if label == "" {
				label = dates.WeekLabel(start)
			}
			out = append(out, models.WeekRecord{
				WeekLabel:  label,
				WeekStart:  start,
				Properties: map[string]models.WeeklyMetrics{},
			})
		}
		out[len(out)-1].Properties[r.PropertyID] = r.Metrics()
	}
	return out, nil
}

func (s *Store) UpdateEnrichment(ctx context.Context, propertyID, externalID string, e models.Enrichment) error {
	return s.Bookings.UpdateEnrichment(ctx, propertyID, externalID, e)
}

func (s *Store) LastImport(ctx context.Context, origin models.Origin) (models.ImportAudit, bool, error) {
	return s.Audits.LastByOrigin(ctx, origin)
}
