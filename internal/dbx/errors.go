package dbx

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrRetryable marks errors that are safe to resolve by running the whole
// transaction again. Repositories wrap it around conflicts they know are
// transient.
var ErrRetryable = errors.New("retryable conflict")

// UniqueViolation reports whether err is a duplicate-key error and returns
// a description of the violated index: the constraint name for Postgres,
// the driver message ("UNIQUE constraint failed: users.email") for SQLite.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return liteErr.Error(), true
		}
	}

	return "", false
}

// IsRetryable reports whether a failed transaction may succeed when run
// again: serialization failures, deadlocks, a busy SQLite database, or an
// error explicitly wrapped with ErrRetryable.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRetryable) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}

	return false
}
