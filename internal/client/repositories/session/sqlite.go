package session

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE key IN (?, ?, ?, ?)`,
		KeyUsername, KeyRole, KeyAccessToken, KeyRefreshToken)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	var s models.Session
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return models.Session{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		switch key {
		case KeyUsername:
			s.Username = string(value)
		case KeyRole:
			s.Role = string(value)
		case KeyAccessToken:
			s.AccessToken = string(value)
		case KeyRefreshToken:
			s.RefreshToken = string(value)
		}
	}

	if err := rows.Err(); err != nil {
		return models.Session{}, fmt.Errorf("failed to iterate session rows: %w", err)
	}

	return s, nil
}

// Save upserts every field of s. Run it in a transaction to keep the
// fields consistent.
func (r *SQLiteRepository) Save(ctx context.Context, s models.Session) error {
	fields := []struct {
		key   string
		value string
	}{
		{KeyUsername, s.Username},
		{KeyRole, s.Role},
		{KeyAccessToken, s.AccessToken},
		{KeyRefreshToken, s.RefreshToken},
	}

	for _, f := range fields {
		_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, f.key, []byte(f.value))
		if err != nil {
			return fmt.Errorf("failed to save session[%s]: %w", f.key, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?, ?, ?)`,
		KeyUsername, KeyRole, KeyAccessToken, KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
