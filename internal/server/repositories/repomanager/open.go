package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLitePrefix selects the embedded SQLite store when it starts a DSN,
// e.g. "sqlite:/var/lib/gophauth/auth.db" or "sqlite::memory:".
const SQLitePrefix = "sqlite:"

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open connects to the database named by dsn, checks the connection and
// returns the matching RepositoryManager. Anything without SQLitePrefix is
// treated as a PostgreSQL DSN.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		m   RepositoryManager
		err error
	)

	if path, ok := strings.CutPrefix(dsn, SQLitePrefix); ok {
		db, err = sql.Open("sqlite", sqliteDSN(path))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		// a single connection serializes writers; every query inside a
		// transaction must go through the tx handle
		db.SetMaxOpenConns(1)
		m = NewSQLiteRepositoryManager()
	} else {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		m = NewPostgresRepositoryManager()
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return db, m, nil
}

func sqliteDSN(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}
