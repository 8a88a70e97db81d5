package session

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestLoad_Empty_ReturnsZeroSession(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	s, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Session{}, s)
	assert.False(t, s.LoggedIn())
}

func TestSaveThenLoad(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := models.Session{Username: "bob", Role: "USER", AccessToken: "A", RefreshToken: "R"}
	require.NoError(t, r.Save(ctx, want))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_Overwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, models.Session{Username: "bob", AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, r.Save(ctx, models.Session{Username: "bob", AccessToken: "A2", RefreshToken: "R1"}))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.AccessToken)
}

func TestClear_KeepsForeignKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('other', x'01')`)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, models.Session{Username: "bob", RefreshToken: "R"}))
	require.NoError(t, r.Clear(ctx))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Session{}, got)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Equal(t, 1, n, "unrelated metadata survives")
}

func TestDBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// Закрываем БД, чтобы получить ошибку драйвера
	require.NoError(t, db.Close())

	_, err := r.Load(ctx)
	require.ErrorContains(t, err, "failed to load session")

	err = r.Save(ctx, models.Session{Username: "u"})
	require.ErrorContains(t, err, "failed to save session[username]")

	err = r.Clear(ctx)
	require.ErrorContains(t, err, "failed to clear session")
}
