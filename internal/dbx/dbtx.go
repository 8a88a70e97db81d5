// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// helpers to run functions inside a transaction, and classification of
// driver errors that repositories and services care about.
package dbx

import (
	"context"
	"database/sql"
	"time"

	"github.com/sethvargo/go-retry"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the body of a transaction. It must use tx for every query.
type TxFunc func(ctx context.Context, tx DBTX) error

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id = $1", id)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// BackoffFunc builds a fresh backoff for one WithRetryTx call. Backoffs
// from go-retry keep state, so they cannot be shared between calls.
type BackoffFunc func() retry.Backoff

// DefaultBackoff retries three times, starting at 10ms and doubling.
func DefaultBackoff() retry.Backoff {
	b := retry.NewExponential(10 * time.Millisecond)
	b = retry.WithJitter(5*time.Millisecond, b)
	return retry.WithMaxRetries(3, b)
}

// WithRetryTx runs fn in a transaction like WithTx and starts over with a new
// transaction when the attempt failed with a retryable error (see
// IsRetryable). The last error is returned once the backoff is exhausted.
func WithRetryTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, backoff BackoffFunc, fn TxFunc) error {
	if backoff == nil {
		backoff = DefaultBackoff
	}
	return retry.Do(ctx, backoff(), func(ctx context.Context) error {
		err := WithTx(ctx, db, opts, fn)
		if err != nil && IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
