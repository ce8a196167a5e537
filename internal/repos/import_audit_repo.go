package repos

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

// ImportAuditRepo only appends.
type ImportAuditRepo struct {
	db *gorm.DB
	lg *log.Logger
}

func NewImportAuditRepo(db *gorm.DB, lg *log.Logger) *ImportAuditRepo {
	return &ImportAuditRepo{db: db, lg: lg}
}

func (r *ImportAuditRepo) Create(ctx context.Context, a *models.ImportAudit) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("record import %s: %w", a.ID, err)
	}
	return nil
}

// Recent lists the newest audits first.
func (r *ImportAuditRepo) Recent(ctx context.Context, limit int) ([]models.ImportAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.ImportAudit
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// LastByOrigin returns the newest audit for origin. ok is false when none exists.
func (r *ImportAuditRepo) LastByOrigin(ctx context.Context, origin models.Origin) (a models.ImportAudit, ok bool, err error) {
	res := r.db.WithContext(ctx).Where("origin = ?", origin).Order("created_at DESC").Limit(1).Find(&a)
	if res.Error != nil {
		return models.ImportAudit{}, false, fmt.Errorf("last %s import: %w", origin, res.Error)
	}
	return a, res.RowsAffected > 0, nil
}
