package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/db"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/metrics"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func booking(id string, price int64, status string) models.Booking {
	return models.Booking{
		PropertyID:  "p1",
		ExternalID:  id,
		BookingDate: day("2025-01-06"),
		Checkin:     day("2025-01-10"),
		Checkout:    day("2025-01-12"),
		Nights:      2,
		LeadTime:    4,
		Price:       decimal.NewFromInt(price),
		Status:      status,
		Channel:     "Website",
		DataOrigin:  models.OriginAPI,
	}
}

func TestBookingsUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingsRepo(openTestDB(t), nil)
	rows := []models.Booking{booking("R1", 100, "confirmed"), booking("R2", 50, "cancelled")}

	for i := 0; i < 2; i++ {
		if _, err := repo.UpsertBatch(ctx, rows, 1); err != nil {
			t.Fatalf("upsert #%d: %v", i+1, err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}

	got, err := repo.LoadRange(ctx, day("2025-01-01"), day("2025-01-31"), BookingFilter{})
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	m := metrics.Aggregate(got)
	if m.ValidCount != 1 || !m.Revenue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("after second upsert valid=%d revenue=%s", m.ValidCount, m.Revenue)
	}
}

func TestBookingsUpsertUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingsRepo(openTestDB(t), nil)

	if _, err := repo.UpsertBatch(ctx, []models.Booking{booking("R1", 100, "confirmed")}, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpsertBatch(ctx, []models.Booking{booking("R1", 100, "Cancelled")}, 0); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.LoadRange(ctx, day("2025-01-01"), day("2025-01-31"), BookingFilter{})
	if len(got) != 1 || got[0].Status != "Cancelled" {
		t.Fatalf("got %+v", got)
	}
}

func TestEnrichmentSurvivesBulkUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingsRepo(openTestDB(t), nil)

	if _, err := repo.UpsertBatch(ctx, []models.Booking{booking("R1", 100, "confirmed")}, 0); err != nil {
		t.Fatal(err)
	}

	precise := decimal.RequireFromString("104.35")
	err := repo.UpdateEnrichment(ctx, "p1", "R1", models.Enrichment{
		Price:          &precise,
		PriceBreakdown: datatypes.JSON(`{"subTotal":95,"taxesFees":9.35}`),
	})
	if err != nil {
		t.Fatalf("UpdateEnrichment: %v", err)
	}

	if _, err := repo.UpsertBatch(ctx, []models.Booking{booking("R1", 100, "checked_out")}, 0); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.LoadRange(ctx, day("2025-01-01"), day("2025-01-31"), BookingFilter{})
	if len(got) != 1 {
		t.Fatalf("rows = %d", len(got))
	}
	b := got[0]
	if !b.Price.Equal(precise) {
		t.Errorf("Price = %s, enriched price must survive", b.Price)
	}
	if b.Status != "checked_out" {
		t.Errorf("Status = %q, bulk status should still apply", b.Status)
	}
	if b.EnrichedAt == nil || len(b.PriceBreakdown) == 0 {
		t.Errorf("enrichment columns cleared: %+v", b)
	}
	if b.Channel != "Website" {
		t.Errorf("Channel = %q, untouched field changed", b.Channel)
	}
}

func TestUpdateEnrichmentMissingBooking(t *testing.T) {
	repo := NewBookingsRepo(openTestDB(t), nil)
	status := "confirmed"
	err := repo.UpdateEnrichment(context.Background(), "p1", "nope", models.Enrichment{Status: &status})
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestLoadRangeFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingsRepo(openTestDB(t), nil)

	ota := booking("R2", 80, "confirmed")
	ota.Channel = "OTA-Partner"
	other := booking("R3", 10, "confirmed")
	other.PropertyID = "p2"
	late := booking("R4", 10, "confirmed")
	late.BookingDate = day("2025-03-01")

	if _, err := repo.UpsertBatch(ctx, []models.Booking{booking("R1", 100, "confirmed"), ota, other, late}, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		f    BookingFilter
		want int
	}{
		{"range only", BookingFilter{}, 3},
		{"property", BookingFilter{PropertyIDs: []string{"p2"}}, 1},
		{"direct channel", BookingFilter{ChannelKeyword: "WEBSITE"}, 2},
		{"origin", BookingFilter{Origin: models.OriginPaste}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.LoadRange(ctx, day("2025-01-01"), day("2025-01-31"), tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("rows = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestWeeklyRoundTripReturnsLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewWeeklyMetricsRepo(openTestDB(t), nil)
	start, end := day("2025-01-06"), day("2025-01-12")

	first := models.WeeklyMetrics{Count: 1, ValidCount: 1, Revenue: decimal.NewFromInt(10), ADR: decimal.NewFromInt(10), DirectRevenue: decimal.Zero}
	second := models.WeeklyMetrics{Count: 3, ValidCount: 2, CancelledCount: 1, Revenue: decimal.NewFromInt(70), ADR: decimal.NewFromInt(35), DirectRevenue: decimal.Zero}

	for _, m := range []models.WeeklyMetrics{first, second} {
		if err := repo.Upsert(ctx, models.NewWeeklySummary("p1", start, end, "Jan 06 – Jan 12, 2025", m)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	rows, err := repo.LoadRange(ctx, start, start)
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0].Metrics()
	if got.Count != 3 || !got.Revenue.Equal(decimal.NewFromInt(70)) || !got.ADR.Equal(decimal.NewFromInt(35)) {
		t.Errorf("loaded %+v, want the second snapshot", got)
	}
}

func TestImportAuditAppend(t *testing.T) {
	ctx := context.Background()
	repo := NewImportAuditRepo(openTestDB(t), nil)

	for i := 0; i < 2; i++ {
		a := &models.ImportAudit{
			Origin:      models.OriginPaste,
			PropertyIDs: datatypes.JSON(`["p1"]`),
			RecordCount: 3,
			Status:      models.ImportSuccess,
		}
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if a.ID == "" {
			t.Error("id not assigned")
		}
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("Recent = %d, %v", len(got), err)
	}
}

func TestImportAuditLastByOrigin(t *testing.T) {
	ctx := context.Background()
	repo := NewImportAuditRepo(openTestDB(t), nil)

	if _, ok, err := repo.LastByOrigin(ctx, models.OriginAPI); err != nil || ok {
		t.Fatalf("empty table: ok=%v err=%v", ok, err)
	}

	older := &models.ImportAudit{Origin: models.OriginAPI, Status: models.ImportSuccess, CreatedAt: day("2025-01-06")}
	newer := &models.ImportAudit{Origin: models.OriginAPI, Status: models.ImportPartial, FailedIDs: datatypes.JSON(`["p2"]`), CreatedAt: day("2025-01-13")}
	paste := &models.ImportAudit{Origin: models.OriginPaste, Status: models.ImportSuccess, CreatedAt: day("2025-01-20")}
	for _, a := range []*models.ImportAudit{older, newer, paste} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, ok, err := repo.LastByOrigin(ctx, models.OriginAPI)
	if err != nil || !ok {
		t.Fatalf("LastByOrigin: ok=%v err=%v", ok, err)
	}
	if got.ID != newer.ID {
		t.Errorf("got audit %s, want %s", got.ID, newer.ID)
	}
	if ids := got.Failed(); len(ids) != 1 || ids[0] != "p2" {
		t.Errorf("Failed() = %v", ids)
	}
}
