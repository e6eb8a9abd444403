package feedcore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor defines the common database operations for both DB and Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Session manages the database connection and current transaction.
// All stores in this package operate through a Session; a Session whose
// executor is a transaction is handed to the store closures run by
// Transaction, so store code is identical inside and outside a transaction.
type Session struct {
	db       *sqlx.DB // Underlying DB for starting transactions
	executor Executor // Current executor (DB or Tx)
	dialect  Dialect
	obs      *ObservabilityConfig
}

// NewSession wraps db for the given dialect. Options attach a logger,
// tracer, or meter; with no options the session is silent.
func NewSession(db *sql.DB, dialect Dialect, opts ...SessionOption) *Session {
	xdb := sqlx.NewDb(db, dialect.Name())
	s := &Session{
		db:       xdb,
		executor: xdb,
		dialect:  dialect,
		obs:      defaultObservabilityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the dialect the session was opened with.
func (s *Session) Dialect() Dialect { return s.dialect }

func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := s.startSpan(ctx, "feedcore.exec", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	result, err := s.executor.ExecContext(ctx, query, args...)
	s.observe(ctx, span, "exec", query, time.Since(start), err)
	return result, err
}

// Get scans a single row into dest. Returns sql.ErrNoRows when nothing
// matched; stores translate that into ErrNotFound.
func (s *Session) Get(ctx context.Context, dest any, query string, args ...any) error {
	ctx, span := s.startSpan(ctx, "feedcore.get", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	err := s.executor.GetContext(ctx, dest, query, args...)
	s.observe(ctx, span, "get", query, time.Since(start), err)
	return err
}

// Select scans all rows into the slice pointed to by dest.
func (s *Session) Select(ctx context.Context, dest any, query string, args ...any) error {
	ctx, span := s.startSpan(ctx, "feedcore.select", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	err := s.executor.SelectContext(ctx, dest, query, args...)
	s.observe(ctx, span, "select", query, time.Since(start), err)
	return err
}

// observe feeds one executed statement into the metrics, trace span, and
// logger configured on the session.
func (s *Session) observe(ctx context.Context, span spanWrapper, operation, query string, duration time.Duration, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		// An empty result is an outcome, not a failure.
		err = nil
	}
	span.SetAttributes(
		attribute.String("db.system", s.dialect.Name()),
		attribute.String("db.operation", operation),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.recordMetrics(ctx, operation, duration, err)
	s.logQuery(ctx, operation, query, duration, err)
}

func (s *Session) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	// Return new Session where executor is the transaction
	return &Session{
		db:       s.db,
		executor: tx,
		dialect:  s.dialect,
		obs:      s.obs,
	}, nil
}

func (s *Session) Commit() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return sql.ErrTxDone
}

func (s *Session) Rollback() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return sql.ErrTxDone
}

// Transaction executes fn within a transaction. When the session is already
// transactional the function runs on it directly, so cascading operations
// compose. Rolls back when fn returns an error or panics.
func (s *Session) Transaction(ctx context.Context, fn func(txSession *Session) error) (err error) {
	// Check if already in transaction
	if _, ok := s.executor.(*sqlx.Tx); ok {
		return fn(s)
	}

	txSession, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txSession.Rollback()
			panic(p)
		} else if err != nil {
			_ = txSession.Rollback()
		}
	}()

	err = fn(txSession)
	if err != nil {
		return err
	}

	return txSession.Commit()
}
