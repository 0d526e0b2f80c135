package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ErrSerialization marks a unit of work aborted because of a concurrent
// transaction. WithTx retries it once.
var ErrSerialization = errors.New("concurrent transaction conflict")

// ErrRetryExhausted is returned when the retried unit of work failed again.
var ErrRetryExhausted = errors.New("transaction retry exhausted")

// IsSerializationFailure reports whether err is a retryable concurrency
// failure from either driver.
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSerialization) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected", "lock_not_available":
			return true
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// WithTx runs fn inside a transaction, rolling back if fn returns an error.
// A serialization failure re-runs the whole of fn once on a fresh transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	err := runTx(ctx, db, fn)
	if !IsSerializationFailure(err) {
		return err
	}
	log.Warn().Err(err).Msg("Transaction hit a concurrent writer, retrying once")
	if err = runTx(ctx, db, fn); IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	}
	return err
}

func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // No-op once committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
