package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate applies the embedded schema migrations
func Migrate(ctx context.Context, db *DB, log *logger.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB.DB, migrationsDir); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply database migrations").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(ctx context.Context, db *DB, log *logger.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB.DB, migrationsDir); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to roll back database migration").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration
func MigrationStatus(ctx context.Context, db *DB, log *logger.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB.DB, migrationsDir)
}

func setupGoose(log *logger.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).
			WithHint("Unsupported migration dialect").
			Mark(ierr.ErrSystem)
	}
	return nil
}

// gooseLogger routes goose's printf logging through zap
type gooseLogger struct {
	log *logger.Logger
}

func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Errorw(fmt.Sprintf(format, v...))
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Infow(fmt.Sprintf(format, v...))
}
