package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Transactor runs work in a transaction serialized by a Postgres advisory lock.
type Transactor struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

func NewTransactor(pool *pgxpool.Pool, maxAttempts int) *Transactor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Transactor{pool: pool, maxAttempts: maxAttempts}
}

// CourtLockKey is the advisory lock key guarding a court's bookings.
func CourtLockKey(courtID string) string {
	return "court:" + courtID
}

// WithinLock runs fn in a read-committed transaction after taking a
// transaction-scoped advisory lock on key. Serialization failures and
// deadlocks are retried; when attempts run out a ConcurrencyConflict is returned.
func (t *Transactor) WithinLock(ctx context.Context, key string, fn func(tx DBTX) error) error {
	var lastErr error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err := pgx.BeginTxFunc(ctx, t.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
				return fmt.Errorf("acquire lock %s: %w", key, err)
			}
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		log.Warn().Err(err).Str("lock", key).Int("attempt", attempt).Msg("transaction aborted, retrying")
	}
	return apperror.ConcurrencyConflict(lastErr, "the court is busy, please retry")
}

// IsRetryable reports whether err is a serialization failure or deadlock.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
