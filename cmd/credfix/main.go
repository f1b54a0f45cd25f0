// Command credfix backfills credentials for factories that were imported
// without a password hash. It generates a random temporary password per
// factory, stores its bcrypt hash, and prints the plain password to stdout
// exactly once for the operator to distribute.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/ecoguardians/energy-settlement/internal/config"
	"github.com/ecoguardians/energy-settlement/internal/credentials"
	"github.com/ecoguardians/energy-settlement/internal/data/postgres"
	"github.com/ecoguardians/energy-settlement/internal/logger"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list affected factories without writing hashes")
	flag.Parse()

	cfg, err := config.LoadConfig("credfix")
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

	factoryRepo := postgres.NewFactoryRepository(log, postgresDB)

	factories, err := factoryRepo.ListMissingPasswordHash(ctx)
	if err != nil {
		log.Error("Failed to list factories without credentials", "error", err)
		os.Exit(1)
	}

	if len(factories) == 0 {
		fmt.Println("All factories have credentials, nothing to do")
		return
	}

	for _, f := range factories {
		if *dryRun {
			fmt.Printf("%s\t(dry run, no password generated)\n", f.ID)
			continue
		}

		password, err := generatePassword()
		if err != nil {
			log.Error("Failed to generate password", "factory_id", f.ID, "error", err)
			os.Exit(1)
		}

		hash, err := credentials.HashPassword(password)
		if err != nil {
			log.Error("Failed to hash password", "factory_id", f.ID, "error", err)
			os.Exit(1)
		}

		if err := factoryRepo.SetPasswordHash(ctx, f.ID, hash); err != nil {
			log.Error("Failed to store password hash", "factory_id", f.ID, "error", err)
			os.Exit(1)
		}

		// The plain password exists only in this output
		fmt.Printf("%s\t%s\n", f.ID, password)
	}

	log.Info("Credential backfill finished", "factories", len(factories), "dry_run", *dryRun)
}

func generatePassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
