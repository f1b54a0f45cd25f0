// Command reconcile compares the external ledger receipt archive against the
// local transaction history and reports every external transaction that never
// produced a local commit. It exits non-zero when the two systems diverge so
// it can run from cron and page on failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ecoguardians/energy-settlement/internal/config"
	"github.com/ecoguardians/energy-settlement/internal/data/mongo"
	"github.com/ecoguardians/energy-settlement/internal/data/postgres"
	"github.com/ecoguardians/energy-settlement/internal/logger"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
	"github.com/ecoguardians/energy-settlement/internal/reconcile"
)

func main() {
	window := flag.Duration("window", 24*time.Hour, "how far back to check confirmed receipts")
	flag.Parse()

	cfg, err := config.LoadConfig("reconcile")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoDB.Close(ctx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	historyRepo := postgres.NewHistoryRepository(log, postgresDB)
	receiptRepo := mongo.NewReceiptRepository(log, mongoDB.Database())

	reconciler := reconcile.New(log, receiptRepo, historyRepo)

	since := time.Now().Add(-*window)
	report, err := reconciler.Run(ctx, since)
	if err != nil {
		log.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Checked %d receipts since %s: %d matched, %d divergent\n",
		report.Checked, since.Format(time.RFC3339), report.Matched, len(report.Divergent))
	for _, d := range report.Divergent {
		fmt.Printf("  DIVERGENT %s operation=%s factory=%s amount=%d: %s\n",
			d.Receipt.ExternalTxRef, d.Receipt.Operation, d.Receipt.FactoryID, d.Receipt.Amount, d.Reason)
	}

	if !report.Clean() {
		os.Exit(2)
	}
}
