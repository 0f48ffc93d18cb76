package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
)

type txKey struct{}

// Tx is a top level transaction. Nested WithTx calls become savepoints on it.
type Tx struct {
	*sqlx.Tx
	ID    string
	depth int
}

func (tx *Tx) savepoint() string {
	return fmt.Sprintf("sp_%d", tx.depth)
}

// GetTx retrieves a transaction from the context if it exists
func GetTx(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*Tx)
	return tx, ok
}

// WithTx runs fn inside a transaction. When ctx already carries one, fn runs
// inside a savepoint so a failure only unwinds its own writes.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := GetTx(ctx); ok {
		return db.withSavepoint(ctx, tx, fn)
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not start a database transaction").
			Mark(ierr.ErrDatabase)
	}

	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	db.logger.Debugw("starting new transaction", "tx_id", tx.ID)

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic in transaction", "tx_id", tx.ID, "panic", r)
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		db.logger.Debugw("rolling back transaction", "tx_id", tx.ID, "error", err)
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Errorw("failed to roll back transaction", "tx_id", tx.ID, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Could not commit the database transaction").
			Mark(ierr.ErrDatabase)
	}
	db.logger.Debugw("committed transaction", "tx_id", tx.ID)
	return nil
}

func (db *DB) withSavepoint(ctx context.Context, tx *Tx, fn func(ctx context.Context) error) error {
	tx.depth++
	name := tx.savepoint()
	defer func() { tx.depth-- }()

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return ierr.WithError(err).
			WithHint("Could not create a savepoint").
			Mark(ierr.ErrDatabase)
	}
	db.logger.Debugw("created savepoint", "tx_id", tx.ID, "savepoint", name)

	if err := fn(ctx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			db.logger.Errorw("failed to roll back savepoint", "tx_id", tx.ID, "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return ierr.WithError(err).
			WithHint("Could not release a savepoint").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
