package repos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingsRepo struct {
	db *gorm.DB
	lg *log.Logger
}

func NewBookingsRepo(db *gorm.DB, lg *log.Logger) *BookingsRepo {
	return &BookingsRepo{
		db: db,
		lg: lg,
	}
}

func (r *BookingsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).Count(&n).Error
	return n, err
}

// UpsertBatch writes rows keyed by (property_id, external_id). A re-submitted
// booking is updated in place. Price stays untouched once the row has been
// enriched, and the enrichment columns are never written here.
func (r *BookingsRepo) UpsertBatch(ctx context.Context, rows []models.Booking, batchSize int) (int, error) {
	rows = dedupe(rows)
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	saved := 0
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := make([]models.Booking, end-i)
		copy(chunk, rows[i:end])
		for j := range chunk {
			chunk[j].ID = 0
			chunk[j].PriceBreakdown = nil
			chunk[j].EnrichedAt = nil
		}

		res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "property_id"},
				{Name: "external_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"booking_date": gorm.Expr("EXCLUDED.booking_date"),
				"checkin":      gorm.Expr("EXCLUDED.checkin"),
				"checkout":     gorm.Expr("EXCLUDED.checkout"),
				"nights":       gorm.Expr("EXCLUDED.nights"),
				"lead_time":    gorm.Expr("EXCLUDED.lead_time"),
				"status":       gorm.Expr("EXCLUDED.status"),
				"channel":      gorm.Expr("EXCLUDED.channel"),
				"data_origin":  gorm.Expr("EXCLUDED.data_origin"),

				"price": gorm.Expr(`CASE WHEN bookings.enriched_at IS NULL THEN EXCLUDED.price ELSE bookings.price END`),

				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).Create(&chunk)

		if res.Error != nil {
			return saved, fmt.Errorf("upsert bookings %d..%d: %w", i, end, res.Error)
		}
		saved += len(chunk)
	}

	if r.lg != nil {
		r.lg.Printf("💾 Upserted %d bookings", saved)
	}
	return saved, nil
}

// UpdateEnrichment merges the non-nil fields of e onto an existing booking.
func (r *BookingsRepo) UpdateEnrichment(ctx context.Context, propertyID, externalID string, e models.Enrichment) error {
	if e.Empty() {
		return nil
	}

	updates := map[string]interface{}{
		"enriched_at": time.Now().UTC(),
		"updated_at":  time.Now().UTC(),
	}
	if e.Price != nil {
		updates["price"] = *e.Price
	}
	if e.Status != nil {
		updates["status"] = *e.Status
	}
	if e.Channel != nil {
		updates["channel"] = *e.Channel
	}
	if len(e.PriceBreakdown) > 0 {
		updates["price_breakdown"] = e.PriceBreakdown
	}

	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("property_id = ? AND external_id = ?", propertyID, externalID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("enrich %s/%s: %w", propertyID, externalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrBookingNotFound, propertyID, externalID)
	}
	return nil
}

// BookingFilter narrows LoadRange. Zero values mean no filter.
type BookingFilter struct {
	PropertyIDs    []string
	Origin         models.Origin
	ChannelKeyword string
	OnlyUnenriched bool
	OnlyEnriched   bool
}

// LoadRange returns bookings created in [from, to], oldest first.
func (r *BookingsRepo) LoadRange(ctx context.Context, from, to time.Time, f BookingFilter) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("booking_date >= ? AND booking_date <= ?", from, to)

	if len(f.PropertyIDs) > 0 {
		q = q.Where("property_id IN ?", f.PropertyIDs)
	}
	if f.Origin != "" {
		q = q.Where("data_origin = ?", f.Origin)
	}
	if kw := strings.TrimSpace(f.ChannelKeyword); kw != "" {
		q = q.Where("LOWER(channel) LIKE ?", "%"+strings.ToLower(kw)+"%")
	}
	if f.OnlyUnenriched {
		q = q.Where("enriched_at IS NULL")
	}
	if f.OnlyEnriched {
		q = q.Where("enriched_at IS NOT NULL")
	}

	var out []models.Booking
	if err := q.Order("booking_date ASC, property_id ASC, external_id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return out, nil
}

// dedupe keeps the last row per key; one INSERT .. ON CONFLICT may not touch a row twice.
func dedupe(rows []models.Booking) []models.Booking {
	index := make(map[string]int, len(rows))
	out := make([]models.Booking, 0, len(rows))
	for _, b := range rows {
		key := b.PropertyID + "\x00" + b.ExternalID
		if i, ok := index[key]; ok {
			out[i] = b
			continue
		}
		index[key] = len(out)
		out = append(out, b)
	}
	return out
}
