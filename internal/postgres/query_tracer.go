package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/quizfunnel/leadsync/internal/logger"
)

// slowQueryThreshold promotes a completed statement to a warning
const slowQueryThreshold = 500 * time.Millisecond

// QueryTracer times one statement. Bound values are never logged since lead rows carry
// email addresses, only how many were bound.
type QueryTracer struct {
	logger *logger.Logger
	query  string
	nArgs  int
	start  time.Time
	txID   string
}

// NewQueryTracer starts timing a statement
func NewQueryTracer(logger *logger.Logger, query string, nArgs int, txID string) *QueryTracer {
	return &QueryTracer{
		logger: logger,
		query:  compactQuery(query),
		nArgs:  nArgs,
		start:  time.Now(),
		txID:   txID,
	}
}

// Done logs the statement outcome
func (qt *QueryTracer) Done(err error) {
	duration := time.Since(qt.start)
	fields := []interface{}{
		"duration_ms", duration.Milliseconds(),
		"query", qt.query,
		"args", qt.nArgs,
	}
	if qt.txID != "" {
		fields = append(fields, "tx_id", qt.txID)
	}

	switch {
	case err != nil && !IsNoRows(err):
		fields = append(fields, "error", err.Error())
		qt.logger.Errorw("lead store query failed", fields...)
	case duration >= slowQueryThreshold:
		qt.logger.Warnw("slow lead store query", fields...)
	default:
		qt.logger.Debugw("lead store query completed", fields...)
	}
}

// compactQuery folds the multi-line statements of the repository into one log line
func compactQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// namedArgCount counts the values bound by a named statement
func namedArgCount(arg interface{}) int {
	switch v := arg.(type) {
	case nil:
		return 0
	case map[string]interface{}:
		return len(v)
	default:
		return 1
	}
}

// TracedQuerier wraps a Querier with tracing
type TracedQuerier struct {
	Querier
	logger *logger.Logger
	txID   string
}

// NewTracedQuerier creates a new traced querier
func NewTracedQuerier(q Querier, logger *logger.Logger, txID string) *TracedQuerier {
	return &TracedQuerier{
		Querier: q,
		logger:  logger,
		txID:    txID,
	}
}

func (tq *TracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	tracer := NewQueryTracer(tq.logger, query, len(args), tq.txID)
	result, err := tq.Querier.ExecContext(ctx, query, args...)
	tracer.Done(err)
	return result, err
}

func (tq *TracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	tracer := NewQueryTracer(tq.logger, query, len(args), tq.txID)
	err := tq.Querier.GetContext(ctx, dest, query, args...)
	tracer.Done(err)
	return err
}

func (tq *TracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	tracer := NewQueryTracer(tq.logger, query, len(args), tq.txID)
	err := tq.Querier.SelectContext(ctx, dest, query, args...)
	tracer.Done(err)
	return err
}

func (tq *TracedQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	tracer := NewQueryTracer(tq.logger, query, namedArgCount(arg), tq.txID)
	result, err := tq.Querier.NamedExecContext(ctx, query, arg)
	tracer.Done(err)
	return result, err
}
