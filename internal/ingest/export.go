package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

// TabWriter replaces the contents of one spreadsheet tab; *sheets.Client satisfies it.
type TabWriter interface {
	WriteTab(ctx context.Context, tab string, values [][]any) error
}

var summaryHeader = []string{
	"Week",
	"Week Start",
	"Property",
	"Bookings",
	"Cancelled",
	"Valid",
	"Revenue",
	"ADR",
	"Nights",
	"Extended Stay %",
	"Long Term %",
	"Avg Lead Time",
	"Direct Bookings",
	"Direct Revenue",
}

// SummaryRows flattens weeks into one row per (week, property), oldest week
// first and properties in roster order. Properties a week lacks are skipped.
func SummaryRows(weeks []models.WeekRecord, roster []models.Property) [][]string {
	order := models.PropertyIDs(roster)
	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.ID] = p.Label()
	}

	rows := [][]string{summaryHeader}
	for _, w := range weeks {
		for _, pm := range w.Ordered(order) {
			m := pm.Metrics
			rows = append(rows, []string{
				w.WeekLabel,
				w.WeekStart.Format(dates.Layout),
				names[pm.PropertyID],
				strconv.Itoa(m.Count),
				strconv.Itoa(m.CancelledCount),
				strconv.Itoa(m.ValidCount),
				m.Revenue.StringFixed(2),
				m.ADR.StringFixed(2),
				strconv.Itoa(m.Nights),
				strconv.FormatFloat(m.ExtendedStayPct, 'f', 1, 64),
				strconv.FormatFloat(m.LongTermPct, 'f', 1, 64),
				strconv.FormatFloat(m.AvgLeadTime, 'f', 1, 64),
				strconv.Itoa(m.DirectCount),
				m.DirectRevenue.StringFixed(2),
			})
		}
	}
	return rows
}

// ExportWeeklySheet writes the weeks in [from, to] to the summary tab.
func (r *Runner) ExportWeeklySheet(ctx context.Context, tw TabWriter, from, to time.Time) (int, error) {
	if tw == nil {
		return 0, errors.New("export: no sheet writer configured")
	}
	rows := SummaryRows(r.Store.Range(from, to), r.Cfg.Properties)

	values := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, c := range row {
			vals[j] = c
		}
		values[i] = vals
	}

	tab := r.Cfg.SummarySheetTab
	if err := tw.WriteTab(ctx, tab, values); err != nil {
		return 0, fmt.Errorf("write sheet tab %q: %w", tab, err)
	}
	r.Logger.Printf("📤 exported %d weekly rows to sheet tab %q", len(rows)-1, tab)
	return len(rows) - 1, nil
}

// ExportWeeklyCSV writes the weeks in [from, to] to a CSV file under Cfg.ExportDir
// and returns its path.
func (r *Runner) ExportWeeklyCSV(from, to time.Time) (string, error) {
	rows := SummaryRows(r.Store.Range(from, to), r.Cfg.Properties)

	dir := r.Cfg.ExportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("weekly_%s_%s.csv", from.Format(dates.Layout), to.Format(dates.Layout)))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	r.Logger.Printf("📤 exported %d weekly rows to %s", len(rows)-1, path)
	return path, nil
}
