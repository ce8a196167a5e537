// Package ingest wires sources, the orchestrator, the weekly store and
// persistence into the jobs the binaries run.
package ingest

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/config"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/metrics"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/persist"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/pms"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/repos"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/weekly"
)

// DetailFetcher looks up one reservation's pricing; *pms.Client satisfies it.
type DetailFetcher interface {
	FetchReservationDetail(ctx context.Context, propertyID, reservationID string) (pms.ReservationDetail, error)
}

type Runner struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger

	Store        *weekly.Store
	Sync         persist.Synchronizer
	Writer       *persist.Writer
	Persister    *persist.BatchPersister
	Orchestrator *orchestrator.Orchestrator
	Details      DetailFetcher
	Aggregator   metrics.Aggregator

	// ArchiveCSV writes each API batch's bookings to Cfg.ExportDir.
	ArchiveCSV bool
}

// NewRunner builds the runner against the PMS API described by cfg.
func NewRunner(db *gorm.DB, cfg *config.Config, lg *log.Logger) (*Runner, error) {
	client, err := pms.NewClient(cfg.PMSBaseURL, cfg.PMSToken, cfg.PMSTimeout)
	if err != nil {
		return nil, err
	}
	return newRunner(db, cfg, lg, client, client), nil
}

func newRunner(db *gorm.DB, cfg *config.Config, lg *log.Logger, f orchestrator.Fetcher, details DetailFetcher) *Runner {
	agg := metrics.NewAggregator(cfg.CancelledKeyword, cfg.DirectChannelKeyword)
	store := weekly.NewStore()
	sync := persist.NewStore(db, lg)
	writer := persist.NewWriter(lg, 2*time.Minute)

	r := &Runner{
		DB:         db,
		Cfg:        cfg,
		Logger:     lg,
		Store:      store,
		Sync:       sync,
		Writer:     writer,
		Persister:  persist.NewBatchPersister(sync, writer, lg),
		Details:    details,
		Aggregator: agg,
		ArchiveCSV: cfg.ExportDir != "",
	}

	r.Orchestrator = orchestrator.New(f, store, orchestrator.Options{
		Delay:       cfg.FetchDelay,
		ItemTimeout: cfg.PMSTimeout,
		Aggregator:  agg,
		Origin:      models.OriginAPI,
	}, lg)
	r.Orchestrator.SetPersister(r)
	r.Orchestrator.SetEnrichedSource(r)
	r.Orchestrator.SetSink(orchestrator.MultiSink())
	return r
}

// SetSinks replaces the progress sinks of API batches.
func (r *Runner) SetSinks(sinks ...orchestrator.ProgressSink) {
	r.Orchestrator.SetSink(orchestrator.MultiSink(sinks...))
}

// Persist queues the durable writes of a batch and, for API batches, its CSV archive.
func (r *Runner) Persist(ctx context.Context, b orchestrator.Batch) {
	r.Persister.Persist(ctx, b)

	if r.ArchiveCSV && b.Origin == models.OriginAPI && len(b.Bookings) > 0 {
		rows := b.Bookings
		path := archivePath(r.Cfg.ExportDir, b)
		if err := r.Writer.Enqueue("csv archive "+path, func(context.Context) error {
			return WriteBookingsCSV(path, rows)
		}); err != nil {
			r.Logger.Printf("⚠️ archive skipped: %v", err)
		}
	}
}

// EnrichedBookings returns the stored enriched bookings of the given
// properties once pending writes have landed.
func (r *Runner) EnrichedBookings(ctx context.Context, propertyIDs []string, from, to time.Time) ([]models.Booking, error) {
	if err := r.Writer.Flush(ctx); err != nil {
		return nil, err
	}
	return r.Sync.LoadBookings(ctx, from, to, repos.BookingFilter{PropertyIDs: propertyIDs, OnlyEnriched: true})
}

// Cancel stops a running API batch before its next property.
func (r *Runner) Cancel() { r.Orchestrator.Cancel() }

// Flush waits for every queued write.
func (r *Runner) Flush(ctx context.Context) error { return r.Writer.Flush(ctx) }

// Close drains pending writes.
func (r *Runner) Close(ctx context.Context) error {
	st := r.Writer.Status()
	if st.Pending > 0 {
		r.Logger.Printf("⏳ waiting for %d pending writes", st.Pending)
	}
	return r.Writer.Close(ctx)
}

// PersistStatus exposes the background writer state.
func (r *Runner) PersistStatus() persist.Status { return r.Writer.Status() }
