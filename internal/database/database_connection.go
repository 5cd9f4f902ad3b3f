// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
database_connection.go - Connection Pool, Transactions and Retry

Connection Pool Configuration:
  - MaxOpenConns: CPU count for DuckDB, 10 for Postgres
  - MaxIdleConns: 2
  - ConnMaxLifetime: 1 hour
  - ConnMaxIdleTime: 5 minutes

Transactions:
Multi-statement writes (lesson links, task topics, settings tabs) run inside
inTx. DuckDB uses optimistic concurrency, so two ingest workers creating the
same topic at the same time can fail with a transaction conflict; inTx
retries those a bounded number of times.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
)

// Repository errors mapped to HTTP status codes by the API layer.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInvalid  = errors.New("invalid reference")
)

const (
	maxTxAttempts  = 4
	txRetryBackoff = 25 * time.Millisecond
)

// querier is satisfied by both *sql.DB and *sql.Tx so helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	maxOpen := runtime.NumCPU()
	if db.driver == config.DriverPostgres {
		maxOpen = 10
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// ensureContext adds a 30-second timeout when ctx has no deadline.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// inTx runs fn inside a transaction, retrying on DuckDB transaction
// conflicts. fn must be safe to re-run.
func (db *DB) inTx(ctx context.Context, op string, fn func(q querier) error) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil || !isTransactionConflict(err) {
			break
		}
		logging.Debug().Str("op", op).Int("attempt", attempt).Err(err).Msg("Transaction conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txRetryBackoff * time.Duration(attempt)):
		}
	}
	metrics.RecordDBQuery(op, time.Since(start), err)
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// observe records the duration of a single-statement operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordDBQuery(op, time.Since(start), err)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict
// or a Postgres serialization failure.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on") ||
		strings.Contains(errStr, "could not serialize access")
}

// isUniqueViolation reports duplicate-key errors from either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate key") ||
		strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "violates unique constraint")
}

// closeQuietly closes a resource and explicitly ignores any error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
