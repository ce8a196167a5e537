package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/config"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/db"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/notify"
)

var (
	outputJSON bool
	fromFlag   string
	toFlag     string
	migrate    bool

	cfg    *config.Config
	logger *log.Logger
	runner *ingest.Runner
	closer func()
)

var rootCmd = &cobra.Command{
	Use:   "hostelctl",
	Short: "Fetch, import and report weekly hostel booking metrics",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(retryCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reloadCmd())
	rootCmd.AddCommand(rebuildCmd())
	rootCmd.AddCommand(weeksCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(exportCmd())

	if err := execute(rootCmd, teardown); err != nil {
		os.Exit(1)
	}
}

// execute runs cmd and always drains pending writes afterwards, also when
// the command itself failed.
func execute(cmd *cobra.Command, down func() error) error {
	err := cmd.Execute()
	if derr := down(); derr != nil {
		fmt.Fprintln(os.Stderr, "Error:", derr)
		if err == nil {
			err = derr
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().StringVar(&fromFlag, "from", "", "Range start (YYYY-MM-DD, today, lastweek); default last Monday")
	rootCmd.PersistentFlags().StringVar(&toFlag, "to", "", "Range end (YYYY-MM-DD, today); default last Sunday")
	rootCmd.PersistentFlags().BoolVar(&migrate, "migrate", false, "Apply the schema before running")
}

func setup() error {
	var err error
	cfg, err = config.LoadFromEnv()
	if err != nil {
		return err
	}
	// Diagnostics go to stderr so stdout stays clean for --json.
	logger = log.New(os.Stderr, "[hostelctl] ", log.LstdFlags|log.Lmsgprefix)
	if os.Getenv("HOSTELCTL_QUIET") == "1" {
		logger.SetOutput(io.Discard)
	}
	cfg.Logger = logger

	dsn, err := cfg.ActiveDatabaseURL()
	if err != nil {
		return err
	}
	gdb, err := db.Open(cfg.DBDriver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.HealthCheck(gdb, 3*time.Second); err != nil {
		db.Close(gdb)
		return fmt.Errorf("database health check: %w", err)
	}
	if migrate || cfg.AutoMigrate {
		if cfg.DBDriver == db.DriverSQLite {
			err = db.AutoMigrate(gdb)
		} else {
			err = db.RunMigrations(dsn, "migrations", logger)
		}
		if err != nil {
			db.Close(gdb)
			return fmt.Errorf("migrate: %w", err)
		}
	}

	runner, err = ingest.NewRunner(gdb, cfg, logger)
	if err != nil {
		db.Close(gdb)
		return err
	}

	sinks, closeSinks := notify.FromConfig(cfg, logger)
	runner.SetSinks(append(sinks, newTermSink(os.Stdout))...)

	closer = func() {
		closeSinks()
		db.Close(gdb)
	}
	return nil
}

func teardown() error {
	if runner == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := runner.Close(ctx)
	st := runner.PersistStatus()
	if st.Failed > 0 {
		logger.Printf("⚠️ %d writes failed, last: %s", st.Failed, st.LastError)
	}
	closer()
	runner, closer = nil, nil
	return err
}

// commandContext handles Ctrl-C: the first interrupt stops a running batch
// before its next property, the second cancels the context.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		for n := 0; ; n++ {
			select {
			case <-sig:
				if n == 0 {
					logger.Println("⏹ interrupt: stopping after the current property (again to abort)")
					runner.Cancel()
					continue
				}
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}
