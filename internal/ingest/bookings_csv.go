package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

var bookingsCSVHeader = []string{
	"property_id",
	"reservation_id",
	"booking_date",
	"checkin",
	"checkout",
	"nights",
	"lead_time",
	"price",
	"status",
	"channel",
	"data_origin",
}

// archivePath names a batch archive, e.g. bookings_2025-01-06_2025-01-12_<batch>.csv
func archivePath(dir string, b orchestrator.Batch) string {
	name := fmt.Sprintf("bookings_%s_%s_%s.csv", b.From.Format(dates.Layout), b.To.Format(dates.Layout), b.ID)
	return filepath.Join(dir, name)
}

// WriteBookingsCSV writes rows to path, creating parent directories.
func WriteBookingsCSV(path string, rows []models.Booking) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(bookingsCSVHeader); err != nil {
		return err
	}

	formatDate := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(dates.Layout)
	}

	for _, b := range rows {
		rec := []string{
			b.PropertyID,
			b.ExternalID,
			formatDate(b.BookingDate),
			formatDate(b.Checkin),
			formatDate(b.Checkout),
			strconv.Itoa(b.Nights),
			strconv.Itoa(b.LeadTime),
			b.Price.StringFixed(2),
			b.Status,
			b.Channel,
			string(b.DataOrigin),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
