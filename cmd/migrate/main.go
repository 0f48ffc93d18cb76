package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/postgres"
)

func main() {
	// Parse command line flags
	command := flag.String("command", "up", "Migration command to run: up, down or status")
	timeout := flag.Duration("timeout", 30*time.Second, "Time allowed for the migration to finish")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *command {
	case "up":
		logger.Info("Running database migrations...")
		err = postgres.Migrate(ctx, db, logger)
	case "down":
		logger.Info("Rolling back the latest migration...")
		err = postgres.MigrateDown(ctx, db, logger)
	case "status":
		err = postgres.MigrationStatus(ctx, db, logger)
	default:
		logger.Fatalw("Unknown migration command", "command", *command)
	}
	if err != nil {
		logger.Fatalw("Migration failed", "command", *command, "error", err)
	}

	logger.Infow("Migration finished", "command", *command)
}
