package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/normalize"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/repos"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/sources"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/weekly"
)

// ImportResult reports one spreadsheet or paste import.
type ImportResult struct {
	BatchID    string
	Origin     models.Origin
	Records    int
	Skipped    int
	Properties []string
	Weeks      []string
}

// ImportRecords normalizes raws and merges them into the weekly store.
// Each touched (week, property) is recomputed from the stored bookings of
// that week overlaid with the imported ones, so a partial sheet never
// wipes data fetched earlier. When propertyID is empty every record must
// carry a configured property id.
func (r *Runner) ImportRecords(ctx context.Context, raws []models.RawRecord, origin models.Origin, propertyID string) (ImportResult, error) {
	if !origin.Valid() {
		return ImportResult{}, fmt.Errorf("import: invalid origin %q", origin)
	}
	if propertyID != "" {
		if _, ok := r.Cfg.Property(propertyID); !ok {
			return ImportResult{}, fmt.Errorf("import: unknown property %q", propertyID)
		}
	}

	res := ImportResult{BatchID: uuid.NewString(), Origin: origin}
	lg := r.Logger
	lg.Printf("▶️ Import %s: %d raw records (property=%s)", origin, len(raws), propertyID)

	bookings, skipped := normalize.NormalizeAll(raws, normalize.Source{PropertyID: propertyID, Origin: origin}, lg)
	res.Skipped = len(skipped)

	kept := bookings[:0]
	for _, b := range bookings {
		if _, ok := r.Cfg.Property(b.PropertyID); !ok {
			lg.Printf("⚠️ import: skipping %s, property %q is not configured", b.ExternalID, b.PropertyID)
			res.Skipped++
			continue
		}
		kept = append(kept, b)
	}
	bookings = kept
	res.Records = len(bookings)

	if len(bookings) == 0 {
		status := models.ImportSuccess
		if res.Skipped > 0 {
			status = models.ImportFailed
		}
		audit := models.ImportAudit{
			ID:      res.BatchID,
			Origin:  origin,
			Status:  status,
			Message: fmt.Sprintf("0 records imported, %d skipped", res.Skipped),
		}
		if propertyID != "" {
			audit.PropertyIDs = propertyIDsJSON([]string{propertyID})
		}
		r.enqueueAudit(audit)
		lg.Printf("⚠️ Import %s: nothing to import (%d skipped)", origin, res.Skipped)
		return res, nil
	}

	from, to := bookingRange(bookings)
	res.Properties = distinctProperties(bookings, r.Cfg.Properties)

	// Stored rows may still be queued.
	if err := r.Writer.Flush(ctx); err != nil {
		return res, err
	}
	stored, err := r.Sync.LoadBookings(ctx, dates.WeekStart(from), dates.WeekEnd(to), repos.BookingFilter{PropertyIDs: res.Properties})
	if err != nil {
		return res, fmt.Errorf("import: load stored bookings: %w", err)
	}

	updates := touchedUpdates(overlay(stored, bookings), bookings, r)
	for _, u := range updates {
		res.Weeks = append(res.Weeks, u.WeekLabel)
	}
	r.Store.Apply(updates)

	items := make([]orchestrator.Item, 0, len(res.Properties))
	now := time.Now()
	for _, id := range res.Properties {
		p, _ := r.Cfg.Property(id)
		n := 0
		for _, b := range bookings {
			if b.PropertyID == id {
				n++
			}
		}
		items = append(items, orchestrator.Item{
			PropertyID: id, Name: p.Label(), State: orchestrator.StateSuccess,
			Records: n, StartedAt: now, FinishedAt: now,
		})
	}
	if len(items) == 1 {
		items[0].Skipped = res.Skipped
	}

	r.Persist(ctx, orchestrator.Batch{
		ID:         res.BatchID,
		Origin:     origin,
		From:       from,
		To:         to,
		Properties: res.Properties,
		Bookings:   bookings,
		Updates:    updates,
		Summary: orchestrator.Summary{
			BatchID:      res.BatchID,
			SuccessCount: len(items),
			Items:        items,
		},
	})

	lg.Printf("✅ Import %s: %d records, %d skipped, %d weeks", origin, res.Records, res.Skipped, len(updates))
	return res, nil
}

// ImportCSVFile imports a spreadsheet CSV export.
func (r *Runner) ImportCSVFile(ctx context.Context, path, propertyID string) (ImportResult, error) {
	raws, err := sources.ParseCSVFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", path, err)
	}
	return r.ImportRecords(ctx, raws, models.OriginSpreadsheet, propertyID)
}

// ImportPaste imports tab separated, CSV or HTML table text.
func (r *Runner) ImportPaste(ctx context.Context, text, propertyID string) (ImportResult, error) {
	raws, err := sources.ParsePaste(text)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import paste: %w", err)
	}
	return r.ImportRecords(ctx, raws, models.OriginPaste, propertyID)
}

// ImportPasteFile reads pasted text from a file, or stdin when path is "-".
func (r *Runner) ImportPasteFile(ctx context.Context, path, propertyID string) (ImportResult, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return ImportResult{}, err
	}
	return r.ImportPaste(ctx, string(b), propertyID)
}

// ImportSheet imports a Google Sheets range.
func (r *Runner) ImportSheet(ctx context.Context, vr sources.ValuesReader, rng, propertyID string) (ImportResult, error) {
	raws, err := sources.ReadSheet(ctx, vr, rng)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import sheet %s: %w", rng, err)
	}
	return r.ImportRecords(ctx, raws, models.OriginSpreadsheet, propertyID)
}

func (r *Runner) enqueueAudit(a models.ImportAudit) {
	if err := r.Writer.Enqueue("import audit "+a.ID, func(ctx context.Context) error {
		return r.Sync.RecordImport(ctx, a)
	}); err != nil {
		r.Logger.Printf("⚠️ import audit dropped: %v", err)
	}
}

// touchedUpdates recomputes only the (week, property) pairs that imported touches.
func touchedUpdates(all, imported []models.Booking, r *Runner) []weekly.Update {
	touched := map[string]map[time.Time]bool{}
	for _, b := range imported {
		if touched[b.PropertyID] == nil {
			touched[b.PropertyID] = map[time.Time]bool{}
		}
		touched[b.PropertyID][dates.WeekStart(b.BookingDate)] = true
	}

	byWeek := map[time.Time]map[string]models.WeeklyMetrics{}
	for id, weeks := range touched {
		for _, u := range orchestrator.WeeklyUpdates(all, []string{id}, time.Time{}, time.Time{}, r.Aggregator) {
			if !weeks[u.WeekStart] {
				continue
			}
			if byWeek[u.WeekStart] == nil {
				byWeek[u.WeekStart] = map[string]models.WeeklyMetrics{}
			}
			byWeek[u.WeekStart][id] = u.Properties[id]
		}
	}

	out := make([]weekly.Update, 0, len(byWeek))
	for w, props := range byWeek {
		out = append(out, weekly.Update{WeekStart: w, WeekLabel: dates.WeekLabel(w), Properties: props})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

// overlay replaces stored bookings with imported ones of the same id. An
// enriched stored price survives the replacement.
func overlay(stored, imported []models.Booking) []models.Booking {
	key := func(b models.Booking) string { return b.PropertyID + "\x00" + b.ExternalID }
	imported = orchestrator.KeepEnriched(imported, stored)

	idx := make(map[string]int, len(stored)+len(imported))
	out := make([]models.Booking, 0, len(stored)+len(imported))
	for _, b := range stored {
		idx[key(b)] = len(out)
		out = append(out, b)
	}
	for _, b := range imported {
		if at, ok := idx[key(b)]; ok {
			out[at] = b
			continue
		}
		idx[key(b)] = len(out)
		out = append(out, b)
	}
	return out
}

func bookingRange(bookings []models.Booking) (from, to time.Time) {
	for i, b := range bookings {
		d := dates.DateOnly(b.BookingDate)
		if i == 0 || d.Before(from) {
			from = d
		}
		if i == 0 || d.After(to) {
			to = d
		}
	}
	return from, to
}

// distinctProperties returns the ids bookings reference, in roster order.
func distinctProperties(bookings []models.Booking, roster []models.Property) []string {
	seen := map[string]bool{}
	for _, b := range bookings {
		seen[b.PropertyID] = true
	}
	var out []string
	for _, p := range roster {
		if seen[p.ID] {
			out = append(out, p.ID)
		}
	}
	return out
}

func propertyIDsJSON(ids []string) datatypes.JSON {
	raw, _ := json.Marshal(ids)
	return datatypes.JSON(raw)
}
