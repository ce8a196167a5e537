package repos

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

type WeeklyMetricsRepo struct {
	db *gorm.DB
	lg *log.Logger
}

func NewWeeklyMetricsRepo(db *gorm.DB, lg *log.Logger) *WeeklyMetricsRepo {
	return &WeeklyMetricsRepo{db: db, lg: lg}
}

var weeklyColumns = []string{
	"week_end", "week_label",
	"booking_count", "cancelled_count", "valid_count",
	"revenue", "adr", "nights",
	"extended_stay_count", "long_term_count", "extended_stay_pct", "long_term_pct",
	"avg_lead_time", "direct_count", "direct_revenue",
	"updated_at",
}

// Upsert replaces the stored snapshot for (property_id, week_start).
func (r *WeeklyMetricsRepo) Upsert(ctx context.Context, rows ...models.WeeklySummary) error {
	if len(rows) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns(weeklyColumns),
	}).Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("upsert weekly summaries: %w", res.Error)
	}

	if r.lg != nil {
		r.lg.Printf("💾 Upserted %d weekly summaries", len(rows))
	}
	return nil
}

// LoadRange returns summaries whose week starts in [from, to], by week then property.
func (r *WeeklyMetricsRepo) LoadRange(ctx context.Context, from, to time.Time) ([]models.WeeklySummary, error) {
	var out []models.WeeklySummary
	err := r.db.WithContext(ctx).
		Where("week_start >= ? AND week_start <= ?", from, to).
		Order("week_start ASC, property_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load weekly summaries: %w", err)
	}
	return out, nil
}
