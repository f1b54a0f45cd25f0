package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecoguardians/energy-settlement/internal/api"
	"github.com/ecoguardians/energy-settlement/internal/config"
	"github.com/ecoguardians/energy-settlement/internal/credentials"
	"github.com/ecoguardians/energy-settlement/internal/data/mongo"
	"github.com/ecoguardians/energy-settlement/internal/data/postgres"
	"github.com/ecoguardians/energy-settlement/internal/ledger"
	"github.com/ecoguardians/energy-settlement/internal/logger"
	"github.com/ecoguardians/energy-settlement/internal/platform/messaging/producers"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
	"github.com/ecoguardians/energy-settlement/internal/settlement"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("settlementd")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for settlement events
	eventProducer, err := producers.NewSettlementEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize settlement event producer", "error", err)
		os.Exit(1)
	}

	// Initialize the external ledger gateway. With the ledger disabled the
	// gateway carries no client and every operation settles local-only.
	var nodeClient ledger.NodeClient
	if cfg.Ledger.Enabled {
		client, err := ledger.NewClient(log, cfg.Ledger.NodeURL)
		if err != nil {
			log.Error("Failed to initialize ledger client", "error", err)
			os.Exit(1)
		}
		nodeClient = client
	}
	gateway := ledger.NewGateway(log, &cfg.Ledger, nodeClient)

	// Initialize repositories
	factoryRepo := postgres.NewFactoryRepository(log, postgresDB)
	tradeRepo := postgres.NewTradeRepository(log, postgresDB)
	historyRepo := postgres.NewHistoryRepository(log, postgresDB)
	receiptRepo := mongo.NewReceiptRepository(log, mongoDB.Database())

	// Initialize services
	engine := settlement.NewEngine(log, postgresDB, factoryRepo, tradeRepo, historyRepo, receiptRepo, gateway, eventProducer)

	settlementService, err := settlement.NewWorkerPoolService(engine, settlement.WorkerPoolConfig{Size: cfg.WorkerPool.Size}, log)
	if err != nil {
		log.Error("Failed to initialize settlement worker pool", "error", err)
		os.Exit(1)
	}

	credentialsService := credentials.NewService(log, &cfg.Credentials, factoryRepo)

	// Initialize REST server
	server := api.NewServer(log, cfg, settlementService, credentialsService)
	log.Info("REST server initialized", "ledger_enabled", cfg.Ledger.Enabled)

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new sagas start
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain the worker pool before closing its downstream dependencies
	settlementService.Shutdown()

	postgresDB.Close()

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing settlement event producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
