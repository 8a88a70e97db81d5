package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository for the embedded SQLite store.
// Timestamps are stored as unix nanoseconds.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Put(ctx context.Context, t *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE
		SET user_id = excluded.user_id, expires_at = excluded.expires_at
		RETURNING id, created_at
	`
	var created int64
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), t.UserID, t.Token, t.Expires.UnixNano(), r.now().UnixNano()).
		Scan(&t.ID, &created)
	if err != nil {
		return putError(err)
	}
	t.CreatedAt = time.Unix(0, created).UTC()
	return nil
}

func (r *SQLiteRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return r.findOne(ctx, `SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token = ?`, token)
}

func (r *SQLiteRepository) FindByUserID(ctx context.Context, userID string) (*models.RefreshToken, error) {
	return r.findOne(ctx, `SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE user_id = ?`, userID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, now.UnixNano())
}

func (r *SQLiteRepository) findOne(ctx context.Context, query string, arg any) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	var expires, created int64
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.ID, &t.UserID, &t.Token, &expires, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Expires = time.Unix(0, expires).UTC()
	t.CreatedAt = time.Unix(0, created).UTC()
	return t, nil
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
