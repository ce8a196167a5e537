package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/datatypes"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/weekly"
)

// BatchPersister queues the writes for a committed batch on the ordered writer.
type BatchPersister struct {
	Sync   Synchronizer
	Writer *Writer
	lg     *log.Logger
}

func NewBatchPersister(sync Synchronizer, w *Writer, lg *log.Logger) *BatchPersister {
	return &BatchPersister{Sync: sync, Writer: w, lg: lg}
}

// Persist returns as soon as the jobs are queued.
func (p *BatchPersister) Persist(_ context.Context, b orchestrator.Batch) {
	byProperty := make(map[string][]models.Booking, len(b.Properties))
	for _, bk := range b.Bookings {
		byProperty[bk.PropertyID] = append(byProperty[bk.PropertyID], bk)
	}

	var writeErrors int

	for _, id := range b.Properties {
		id := id
		rows := byProperty[id]
		if len(rows) == 0 {
			continue
		}
		p.enqueue(fmt.Sprintf("bookings %s batch=%s", id, b.ID), func(ctx context.Context) error {
			res := p.Sync.UpsertBookings(ctx, rows, id, b.Origin)
			if len(res.Errors) > 0 {
				writeErrors += len(res.Errors)
				return fmt.Errorf("saved %d of %d, first error: %w", res.SavedCount, len(rows), res.Errors[0])
			}
			if p.lg != nil {
				p.lg.Printf("💾 property=%s saved %d bookings", id, res.SavedCount)
			}
			return nil
		})
	}

	if len(b.Updates) > 0 {
		p.EnqueueWeekly(fmt.Sprintf("weekly metrics batch=%s", b.ID), b.Updates, func(n int) { writeErrors += n })
	}

	audit := models.ImportAudit{
		ID:          b.ID,
		Origin:      b.Origin,
		PropertyIDs: propertyIDsJSON(b),
		FailedIDs:   failedIDsJSON(b.Summary),
		RangeStart:  b.From,
		RangeEnd:    b.To,
		RecordCount: len(b.Bookings),
		Status:      b.Summary.Status(),
	}
	p.enqueue(fmt.Sprintf("import audit batch=%s", b.ID), func(ctx context.Context) error {
		audit.Message = b.Summary.String()
		if writeErrors > 0 {
			audit.Message += fmt.Sprintf("; %d write errors", writeErrors)
		}
		return p.Sync.RecordImport(ctx, audit)
	})
}

// EnqueueWeekly schedules an upsert of every (week, property) snapshot in updates.
// onErrors, when set, receives the number of failed rows.
func (p *BatchPersister) EnqueueWeekly(name string, updates []weekly.Update, onErrors func(n int)) {
	p.enqueue(name, func(ctx context.Context) error {
		var firstErr error
		failed := 0
		for _, u := range updates {
			start := dates.WeekStart(u.WeekStart)
			for id, m := range u.Properties {
				if err := p.Sync.UpsertWeeklyMetrics(ctx, id, start, dates.WeekEnd(start), u.WeekLabel, m); err != nil {
					failed++
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
		if failed > 0 && onErrors != nil {
			onErrors(failed)
		}
		return firstErr
	})
}

// EnqueueEnrichment schedules a narrow update behind every write already queued.
func (p *BatchPersister) EnqueueEnrichment(propertyID, externalID string, e models.Enrichment) error {
	return p.Writer.Enqueue(fmt.Sprintf("enrich %s/%s", propertyID, externalID), func(ctx context.Context) error {
		return p.Sync.UpdateEnrichment(ctx, propertyID, externalID, e)
	})
}

func (p *BatchPersister) enqueue(name string, fn func(ctx context.Context) error) {
	if err := p.Writer.Enqueue(name, fn); err != nil && p.lg != nil {
		p.lg.Printf("⚠️ persist: dropped %s: %v", name, err)
	}
}

func propertyIDsJSON(b orchestrator.Batch) datatypes.JSON {
	ids := make([]string, 0, len(b.Summary.Items))
	for _, it := range b.Summary.Items {
		ids = append(ids, it.PropertyID)
	}
	if len(ids) == 0 {
		ids = b.Properties
	}
	raw, _ := json.Marshal(ids)
	return datatypes.JSON(raw)
}

func failedIDsJSON(s orchestrator.Summary) datatypes.JSON {
	ids := s.FailedPropertyIDs()
	if len(ids) == 0 {
		return nil
	}
	raw, _ := json.Marshal(ids)
	return datatypes.JSON(raw)
}
