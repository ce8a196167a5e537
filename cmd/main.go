package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/config"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/db"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/notify"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/sheets"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		logger.Fatalf("create export dir %q: %v", cfg.ExportDir, err)
	}
	logger.Printf("📂 Using export dir: %s", cfg.ExportDir)

	// -----------------------------
	// Sandbox-aware DB selection
	// -----------------------------
	dsn, err := cfg.ActiveDatabaseURL()
	if err != nil {
		logger.Fatalf("database URL resolution failed: %v", err)
	}

	switch {
	case cfg.DBDriver == db.DriverSQLite:
		logger.Printf("🗂  SQLITE MODE — using %s", dsn)
	case cfg.SandboxMode:
		logger.Println("🧪 SANDBOX MODE ENABLED — using SANDBOX_DATABASE_URL")
	default:
		logger.Println("⚠️  NORMAL MODE — using DATABASE_URL")
	}

	gdb, err := db.Open(cfg.DBDriver, dsn)
	if err != nil {
		logger.Fatalf("DB connection failed: %v", err)
	}
	defer db.Close(gdb)

	if err := db.HealthCheck(gdb, 3*time.Second); err != nil {
		logger.Fatalf("DB health check failed: %v", err)
	}
	logger.Println("✅ Database connection healthy.")

	if cfg.AutoMigrate {
		logger.Println("Running migrations...")
		if cfg.DBDriver == db.DriverSQLite {
			err = db.AutoMigrate(gdb)
		} else {
			err = db.RunMigrations(dsn, "migrations", logger)
		}
		if err != nil {
			logger.Fatalf("Database migration failed: %v", err)
		}
		logger.Println("✅ Database migrated successfully.")
	}

	for _, p := range cfg.Properties {
		logger.Printf("Property: %s (ID: %s)", p.Label(), p.ID)
	}

	runner, err := ingest.NewRunner(gdb, cfg, logger)
	if err != nil {
		logger.Fatalf("runner setup failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := runner.Close(ctx); err != nil {
			logger.Printf("⚠️ pending writes not drained: %v", err)
		}
	}()

	sinks, closeSinks := notify.FromConfig(cfg, logger)
	defer closeSinks()
	runner.SetSinks(append(sinks, notify.NewLogSink(logger))...)

	logger.Println("✅ Startup complete. Ready to fetch bookings.")

	from, to := jobRange(logger)
	logger.Printf("📅 Job range %s .. %s", from.Format("2006-01-02"), to.Format("2006-01-02"))

	// Warm the weekly view from what is already stored.
	if os.Getenv("RUN_RELOAD") == "1" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if _, err := runner.ReloadWeeks(ctx, from.AddDate(0, 0, -7*12), to); err != nil {
			logger.Fatalf("weekly reload failed: %v", err)
		}
	}

	// ---------- API FETCH (ENV-GUARDED) ----------

	if os.Getenv("RUN_WEEKLY_FETCH") == "1" {
		logger.Println("🚀 Running weekly API fetch…")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		sum, err := runner.RunWeeklyFetch(ctx, from, to)
		if err != nil {
			logger.Fatalf("weekly fetch failed: %v", err)
		}
		if ids := sum.FailedPropertyIDs(); len(ids) > 0 {
			logger.Printf("⚠️  %d properties failed, run with RUN_RETRY=1 to retry them", len(ids))
		}

		logger.Println("✅ Weekly API fetch complete.")
	}

	if os.Getenv("RUN_RETRY") == "1" {
		logger.Println("🔁 Retrying failed properties of the last batch…")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := runner.RetryLastFailed(ctx); err != nil {
			if errors.Is(err, ingest.ErrNothingToRetry) {
				logger.Println("✅ Nothing to retry.")
			} else {
				logger.Fatalf("retry failed: %v", err)
			}
		}
	}

	if os.Getenv("RUN_ENRICH") == "1" {
		logger.Println("🧪 Running price enrichment…")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		opts := ingest.EnrichOptions{
			From:           from,
			To:             to,
			Limit:          config.IntEnv("ENRICH_LIMIT", 500),
			DryRun:         config.BoolEnv("ENRICH_DRY_RUN", true),
			MaxPreview:     25,
			OnlyUnenriched: config.BoolEnv("ENRICH_ONLY_NEW", true),
			Delay:          cfg.FetchDelay,
		}
		if _, err := runner.EnrichPrices(ctx, opts); err != nil {
			logger.Fatalf("price enrichment failed: %v", err)
		}

		logger.Println("✅ Price enrichment complete.")
	}

	// ---------- EXPORTS ----------

	if os.Getenv("RUN_EXPORT") == "1" {
		logger.Println("📤 Exporting weekly summary…")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := runner.ExportWeeklyCSV(from, to); err != nil {
			logger.Fatalf("weekly CSV export failed: %v", err)
		}

		if cfg.SummarySpreadsheetID != "" {
			sc, err := sheets.NewClient(ctx, cfg.SummarySpreadsheetID, cfg.GoogleSheetsCredentials, logger)
			if err != nil {
				logger.Fatalf("sheets client failed: %v", err)
			}
			if _, err := runner.ExportWeeklySheet(ctx, sc, from, to); err != nil {
				logger.Fatalf("weekly sheet export failed: %v", err)
			}
		}

		logger.Println("✅ Weekly export complete.")
	}
}

// jobRange reads FETCH_FROM / FETCH_TO, defaulting to last Monday..Sunday.
func jobRange(logger *log.Logger) (time.Time, time.Time) {
	from, to := ingest.LastWeek(time.Now())

	f, err := config.DateEnv("FETCH_FROM")
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if f != nil {
		from = *f
	}
	t, err := config.DateEnv("FETCH_TO")
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if t != nil {
		to = *t
	}
	return from, to
}
