package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteCache(t *testing.T, ttl time.Duration) *SQLiteCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(context.Background(), path, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"v":1}`)))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"v":1}`), v)
}

func TestSQLiteCache_MissingKey(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, time.Minute)

	_, ok, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteCache_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("old")))
	require.NoError(t, c.Set(ctx, "k", []byte("new")))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), v)
}

func TestSQLiteCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, 50*time.Millisecond)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	time.Sleep(55 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired row should read as a miss")
}

func TestSQLiteCache_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, 0)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	time.Sleep(20 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteCache_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewSQLiteCache(ctx, path, time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("durable")))
	require.NoError(t, c.Close())

	reopened, err := NewSQLiteCache(ctx, path, time.Minute)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("durable"), v)
}

func TestSQLiteCache_TTLStoredPerEntry(t *testing.T) {
	// An entry written under a long TTL must keep it even if the store
	// is reopened with a shorter one.
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewSQLiteCache(ctx, path, time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	require.NoError(t, c.Close())

	reopened, err := NewSQLiteCache(ctx, path, time.Millisecond)
	require.NoError(t, err)
	defer reopened.Close()

	time.Sleep(10 * time.Millisecond)
	_, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "entry should honor the TTL captured at write time")
}

func TestSQLiteCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Clear(ctx))

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
