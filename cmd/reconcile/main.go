package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	syncapp "github.com/b2bstore/backend/internal/application/sync"
	"github.com/b2bstore/backend/internal/infrastructure/config"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/logger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

// main runs a single reconciliation pass against the external ledger and
// exits non-zero when the run aborts or any snapshot is rejected. Meant
// for cron jobs and operator-triggered catch-up runs; the server embeds
// the same runner behind its scheduler.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	client, err := ledger.NewClient(&ledger.Config{
		BaseURL:        cfg.Ledger.BaseURL,
		Token:          cfg.Ledger.Token,
		TimeoutSeconds: cfg.Ledger.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("failed to create ledger client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Sync.Timeout)
	defer cancel()

	runner := syncapp.NewRunner(client, db.DB, log)
	report, err := runner.Run(ctx)
	if err != nil {
		log.Error("reconciliation aborted", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	for _, summary := range report.Summaries {
		log.Info("snapshot summary",
			zap.String("snapshot", summary.Snapshot),
			zap.Int("created", summary.Created),
			zap.Int("updated", summary.Updated),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
		)
	}

	if rejected := report.Err(); rejected != nil {
		log.Error("reconciliation completed with rejected snapshots", zap.Error(rejected))
		_ = log.Sync()
		os.Exit(1)
	}

	log.Info("reconciliation completed", zap.Duration("duration", report.Duration))
}
