package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"askbob-medical/backend/pkg/errors"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    cache_key TEXT PRIMARY KEY,
    cache_value TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    ttl_ms INTEGER NOT NULL
)`

// SQLite pragmas matching the embedded graph store
var cachePragmas = []string{
	`PRAGMA journal_mode=WAL`,
	`PRAGMA busy_timeout=5000`,
	`PRAGMA synchronous=NORMAL`,
}

// SQLiteCache is the durable cache tier. Each row carries the TTL that was
// in effect when it was written, so later config changes do not alter the
// expiry of existing entries. Access to the connection is serialized
// behind a single mutex.
type SQLiteCache struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteCache opens (creating if needed) the durable cache at path.
// A TTL of zero means entries never expire.
func NewSQLiteCache(ctx context.Context, path string, ttl time.Duration) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewCacheStoreFailed(path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewCacheStoreFailed(path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewCacheStoreFailed(path, err)
	}

	for _, pragma := range cachePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.NewCacheStoreFailed(path, fmt.Errorf("setting pragma: %w", err))
		}
	}
	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, errors.NewCacheStoreFailed(path, fmt.Errorf("creating schema: %w", err))
	}

	if ttl < 0 {
		ttl = 0
	}
	return &SQLiteCache{db: db, ttl: ttl}, nil
}

// Get returns the stored value for key, deleting and missing on an
// expired row.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var value []byte
	var updatedAt, ttlMs int64
	err := c.db.QueryRowContext(ctx,
		`SELECT cache_value, updated_at, ttl_ms FROM cache_entries WHERE cache_key = ?`, key,
	).Scan(&value, &updatedAt, &ttlMs)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	if ttlMs > 0 && updatedAt+ttlMs <= time.Now().UnixMilli() {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("deleting expired cache entry: %w", err)
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set upserts the value under key with a fresh timestamp and the
// currently configured TTL.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, cache_value, updated_at, ttl_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
		    cache_value = excluded.cache_value,
		    updated_at = excluded.updated_at,
		    ttl_ms = excluded.ttl_ms`,
		key, value, time.Now().UnixMilli(), c.ttl.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes all entries
func (c *SQLiteCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close releases the underlying connection
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
