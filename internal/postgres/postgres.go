package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/logger"
)

// pq error code for unique_violation
const uniqueViolationCode = "23505"

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Querier returns the current transaction if in one, or the pool
	Querier(ctx context.Context) Querier
}

// Querier is the subset of operations shared by *sqlx.DB and *sqlx.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// NewDB opens the connection pool
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, err
	}

	if cfg.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	return &DB{DB: db, logger: logger}, nil
}

// NewClient exposes DB as an IClient
func NewClient(db *DB) IClient {
	return db
}

// Querier returns the transaction bound to ctx, falling back to the pool
func (db *DB) Querier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

// NamedGet runs a named query that returns a single row into dest
func NamedGet(ctx context.Context, q Querier, dest interface{}, query string, arg interface{}) error {
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return q.GetContext(ctx, dest, q.Rebind(bound), args...)
}

// NamedSelect runs a named query that returns many rows into dest
func NamedSelect(ctx context.Context, q Querier, dest interface{}, query string, arg interface{}) error {
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return q.SelectContext(ctx, dest, q.Rebind(bound), args...)
}

// IsUniqueViolation reports whether err is a unique constraint failure
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// IsNoRows reports whether a single-row query matched nothing
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
