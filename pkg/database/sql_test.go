package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestSQLite(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "nucleo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestSQLStore_UpsertAndSelect(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)
	require.NoError(t, store.AutoMigrate())

	now := time.Now().UTC()
	for count := 1; count <= 2; count++ {
		require.NoError(t, store.Upsert(ctx, "user_warns", Row{
			"user_id":          "u1",
			"guild_id":         "g1",
			"warn_count":       count,
			"last_warn_reason": "spam",
			"updated_at":       now,
		}, "user_id", "guild_id"))
	}

	rows, err := store.Select(ctx, "user_warns", Filters{"user_id": "u1", "guild_id": "g1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Int("warn_count"))
	assert.Equal(t, "spam", rows[0].String("last_warn_reason"))
	assert.False(t, rows[0].Time("updated_at").IsZero())
}

func TestSQLStore_UpsertWithNullKey(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)
	require.NoError(t, store.AutoMigrate())

	row := Row{"user_id": "u1", "guild_id": nil, "warn_count": 1}
	require.NoError(t, store.Upsert(ctx, "user_warns", row, "user_id", "guild_id"))
	row["warn_count"] = 2
	require.NoError(t, store.Upsert(ctx, "user_warns", row, "user_id", "guild_id"))

	rows, err := store.Select(ctx, "user_warns", Filters{"user_id": "u1", "guild_id": nil})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Int("warn_count"))
}

func TestSQLStore_InsertConflict(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)
	require.NoError(t, store.AutoMigrate())

	require.NoError(t, store.Insert(ctx, "blocked_words", Row{"word": "spam", "guild_id": "g1"}))
	err := store.Insert(ctx, "blocked_words", Row{"word": "spam", "guild_id": "g1"})
	require.Error(t, err)
	assert.True(t, IsConflict(err), "got %v", err)
}

func TestSQLStore_LegacySchemaMismatch(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)
	require.NoError(t, store.DB().Exec(`CREATE TABLE user_warns (
		user_id TEXT PRIMARY KEY,
		warn_count INTEGER NOT NULL DEFAULT 0,
		last_warn_reason TEXT,
		updated_at DATETIME
	)`).Error)

	_, err := store.Select(ctx, "user_warns", Filters{"user_id": "u1", "guild_id": "g1"})
	require.Error(t, err)
	assert.True(t, IsSchemaMismatch(err), "got %v", err)

	err = store.Upsert(ctx, "user_warns", Row{"user_id": "u1", "guild_id": "g1", "warn_count": 1}, "user_id", "guild_id")
	require.Error(t, err)
	assert.True(t, IsSchemaMismatch(err), "got %v", err)

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "guild_id", mismatch.Column)

	// the legacy shape keyed on user only works
	require.NoError(t, store.Upsert(ctx, "user_warns", Row{"user_id": "u1", "warn_count": 1}, "user_id"))
	require.NoError(t, store.Upsert(ctx, "user_warns", Row{"user_id": "u1", "warn_count": 2}, "user_id"))
	rows, err := store.Select(ctx, "user_warns", Filters{"user_id": "u1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Int("warn_count"))

	assert.True(t, IsSchemaMismatch(store.Delete(ctx, "user_warns", Filters{"user_id": "u1", "guild_id": nil})))
}

func TestSQLStore_DeleteAndOrder(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)
	require.NoError(t, store.AutoMigrate())

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, "system_logs", Row{
			"id":         id,
			"event":      "INFO",
			"details":    "detalle",
			"operator":   "tester",
			"created_at": base.Add(time.Duration(i) * time.Hour),
		}))
	}

	rows, err := store.Select(ctx, "system_logs", nil, OrderBy("created_at", true), Limit(2))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[0].String("id"))
	assert.Equal(t, "b", rows[1].String("id"))

	require.NoError(t, store.Delete(ctx, "system_logs", Filters{"id": "c"}))
	rows, err = store.Select(ctx, "system_logs", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.ErrorIs(t, store.Delete(ctx, "system_logs", nil), gorm.ErrMissingWhereClause)
}

func TestSQLStore_RejectsBadIdentifiers(t *testing.T) {
	store := openTestSQLite(t)
	_, err := store.Select(context.Background(), "user_warns; --", nil)
	assert.Error(t, err)
}

func TestSQLStore_Status(t *testing.T) {
	store := openTestSQLite(t)
	status, ok := store.Status(context.Background())
	assert.True(t, ok)
	assert.Contains(t, status, "En linea")
}

func TestClassify(t *testing.T) {
	pgMissing := &pgconn.PgError{Code: "42703", Message: `column "guild_id" does not exist`}
	err := classify("user_warns", pgMissing)
	assert.True(t, IsSchemaMismatch(err))
	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "guild_id", mismatch.Column)

	assert.True(t, IsConflict(classify("blocked_words", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsConflict(classify("blocked_words", gorm.ErrDuplicatedKey)))
	assert.True(t, IsSchemaMismatch(classify("user_warns", errors.New("no such column: guild_id"))))

	other := errors.New("connection reset")
	assert.Equal(t, other, classify("user_warns", other))
	assert.Nil(t, classify("user_warns", nil))
}
