// Package orchestrator drives sequential per-property fetches with progress,
// cooperative cancellation and per-item failure isolation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/metrics"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/normalize"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/pms"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/weekly"
)

var (
	ErrNoProperties = errors.New("no properties to fetch")
	ErrInvalidRange = errors.New("invalid date range")
	ErrBusy         = errors.New("a batch is already running")
)

// Fetcher is the upstream reservation source; *pms.Client satisfies it.
type Fetcher interface {
	FetchReservations(ctx context.Context, propertyID string, from, to time.Time) ([]models.RawRecord, error)
}

// EnrichedSource returns stored bookings whose price was already replaced by
// a per-reservation detail lookup.
type EnrichedSource interface {
	EnrichedBookings(ctx context.Context, propertyIDs []string, from, to time.Time) ([]models.Booking, error)
}

type Options struct {
	// Delay is slept after each successful fetch when more items follow.
	Delay time.Duration
	// ItemTimeout bounds one fetch; zero means no extra bound.
	ItemTimeout time.Duration
	Aggregator  metrics.Aggregator
	Origin      models.Origin
}

type Orchestrator struct {
	fetcher   Fetcher
	store     *weekly.Store
	opts      Options
	sink      ProgressSink
	persister Persister
	enriched  EnrichedSource
	lg        *log.Logger

	running   sync.Mutex
	cancelled atomic.Bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func New(f Fetcher, store *weekly.Store, opts Options, lg *log.Logger) *Orchestrator {
	if opts.Aggregator.CancelledKeyword == "" {
		opts.Aggregator = metrics.NewAggregator(metrics.DefaultCancelledKeyword, opts.Aggregator.DirectKeyword)
	}
	if opts.Origin == "" {
		opts.Origin = models.OriginAPI
	}
	return &Orchestrator{
		fetcher: f,
		store:   store,
		opts:    opts,
		lg:      lg,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// SetSink replaces the progress sink. Nil disables progress events.
func (o *Orchestrator) SetSink(s ProgressSink) { o.sink = s }

// SetPersister sets where committed batches are handed off. Nil disables persistence.
func (o *Orchestrator) SetPersister(p Persister) { o.persister = p }

// SetEnrichedSource sets where enriched prices are read back from before the
// weekly metrics are rebuilt. Nil keeps the fetched prices as they are.
func (o *Orchestrator) SetEnrichedSource(s EnrichedSource) { o.enriched = s }

// Cancel asks the running batch to stop before its next item.
func (o *Orchestrator) Cancel() { o.cancelled.Store(true) }

// RunOne is Run for a single property.
func (o *Orchestrator) RunOne(ctx context.Context, p models.Property, from, to time.Time) (Summary, error) {
	return o.Run(ctx, []models.Property{p}, from, to)
}

// Run fetches every property in order and commits all successful results to
// the weekly store in one step. Per-item failures never abort the batch;
// only setup errors are returned.
func (o *Orchestrator) Run(ctx context.Context, properties []models.Property, from, to time.Time) (Summary, error) {
	if o.fetcher == nil || o.store == nil {
		return Summary{}, errors.New("orchestrator: fetcher and store are required")
	}
	if len(properties) == 0 {
		return Summary{}, ErrNoProperties
	}
	if from.IsZero() || to.IsZero() || dates.DateOnly(to).Before(dates.DateOnly(from)) {
		return Summary{}, fmt.Errorf("%w: %s .. %s", ErrInvalidRange, from.Format(dates.Layout), to.Format(dates.Layout))
	}
	if !o.running.TryLock() {
		return Summary{}, ErrBusy
	}
	defer o.running.Unlock()

	o.cancelled.Store(false)
	// Each weekly snapshot replaces a whole (week, property) cell, so the
	// fetch always covers complete Monday..Sunday weeks.
	from, to = dates.WeekStart(from), dates.WeekEnd(to)

	b := &batch{
		id:      uuid.NewString(),
		started: o.now(),
		items:   make([]Item, len(properties)),
	}
	for i, p := range properties {
		b.items[i] = Item{PropertyID: p.ID, Name: p.Label(), State: StatePending}
	}

	o.logf("▶️ batch %s: fetching %d properties %s .. %s", b.id, len(properties), from.Format(dates.Layout), to.Format(dates.Layout))
	o.emit(b)

	var (
		bookings  []models.Booking
		succeeded []string
		cancelled bool
	)

	for i, p := range properties {
		if o.cancelled.Load() || ctx.Err() != nil {
			cancelled = true
			o.logf("⏹ batch %s: cancelled before %s (%d/%d done)", b.id, p.ID, i, len(properties))
			break
		}

		b.current = i + 1
		b.items[i].State = StateLoading
		b.items[i].StartedAt = o.now()
		o.emit(b)

		got, skipped, err := o.fetchOne(ctx, p, from, to)
		b.items[i].FinishedAt = o.now()

		if err != nil {
			b.items[i].State = StateError
			b.items[i].Error = err.Error()
			b.items[i].ErrorKind = string(pms.KindOf(err))
			b.errors++
			o.logf("❌ batch %s: property=%s failed: %v", b.id, p.ID, err)
			o.emit(b)
			continue
		}

		b.items[i].State = StateSuccess
		b.items[i].Records = len(got)
		b.items[i].Skipped = skipped
		b.successes++
		bookings = append(bookings, got...)
		succeeded = append(succeeded, p.ID)
		o.logf("✅ batch %s: property=%s bookings=%d skipped=%d", b.id, p.ID, len(got), skipped)
		o.emit(b)

		if i < len(properties)-1 && o.opts.Delay > 0 {
			o.sleep(ctx, o.opts.Delay)
		}
	}

	bookings = o.keepEnriched(ctx, bookings, succeeded, from, to)
	updates := WeeklyUpdates(bookings, succeeded, from, to, o.opts.Aggregator)
	o.store.Apply(updates)

	summary := Summary{
		BatchID:      b.id,
		SuccessCount: b.successes,
		ErrorCount:   b.errors,
		Cancelled:    cancelled,
		Items:        append([]Item(nil), b.items...),
		Elapsed:      o.now().Sub(b.started),
	}
	o.logf("📦 batch %s: %s, merged %d weeks", b.id, summary, len(updates))

	if o.persister != nil {
		o.persister.Persist(context.WithoutCancel(ctx), Batch{
			ID:         b.id,
			Origin:     o.opts.Origin,
			From:       from,
			To:         to,
			Properties: succeeded,
			Bookings:   bookings,
			Updates:    updates,
			Summary:    summary,
		})
	}

	if o.sink != nil {
		o.sink.OnSummary(summary)
	}
	return summary, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, p models.Property, from, to time.Time) ([]models.Booking, int, error) {
	fctx := ctx
	if o.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, o.opts.ItemTimeout)
		defer cancel()
	}

	raws, err := o.fetcher.FetchReservations(fctx, p.ID, from, to)
	if err != nil {
		return nil, 0, err
	}

	got, skipped := normalize.NormalizeAll(raws, normalize.Source{PropertyID: p.ID, Origin: o.opts.Origin}, o.lg)
	return got, len(skipped), nil
}

func (o *Orchestrator) keepEnriched(ctx context.Context, bookings []models.Booking, ids []string, from, to time.Time) []models.Booking {
	if o.enriched == nil || len(bookings) == 0 {
		return bookings
	}
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	stored, err := o.enriched.EnrichedBookings(ectx, ids, from, to)
	if err != nil {
		o.logf("⚠️ enriched prices unavailable, using fetched prices: %v", err)
		return bookings
	}
	return KeepEnriched(bookings, stored)
}

type batch struct {
	id        string
	started   time.Time
	current   int
	successes int
	errors    int
	items     []Item
}

func (o *Orchestrator) emit(b *batch) {
	if o.sink == nil {
		return
	}
	o.sink.OnProgress(Progress{
		BatchID:   b.id,
		Current:   b.current,
		Total:     len(b.items),
		Items:     append([]Item(nil), b.items...),
		ElapsedMs: o.now().Sub(b.started).Milliseconds(),
	})
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.lg != nil {
		o.lg.Printf(format, args...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
