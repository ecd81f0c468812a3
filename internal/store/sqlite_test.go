package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MetadataCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedMetadata(ctx, "tt1160419", []byte(`{"tmdb_id":438631}`), time.Hour))

	data, err := st.GetCachedMetadata(ctx, "tt1160419")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tmdb_id":438631}`, string(data))
}

func TestSQLite_MetadataCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	data, err := st.GetCachedMetadata(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLite_MetadataCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedMetadata(ctx, "tt1", []byte("old"), -time.Hour))

	data, err := st.GetCachedMetadata(ctx, "tt1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLite_MetadataCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedMetadata(ctx, "tt1", []byte("v1"), time.Hour))
	require.NoError(t, st.SetCachedMetadata(ctx, "tt1", []byte("v2"), time.Hour))

	data, err := st.GetCachedMetadata(ctx, "tt1")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata_cache WHERE external_id = ?`, "tt1").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLite_MetadataCache_DeleteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedMetadata(ctx, "old", []byte("x"), -time.Hour))
	require.NoError(t, st.SetCachedMetadata(ctx, "fresh", []byte("y"), time.Hour))

	n, err := st.DeleteExpiredMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := st.GetCachedMetadata(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "y", string(data))
}

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}
