package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/errors"
)

const memorySchema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	memory     TEXT NOT NULL,
	metadata   TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_entries_user ON memory_entries(user_id, id);
`

var memoryPragmas = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA busy_timeout = 5000`,
	`PRAGMA synchronous = NORMAL`,
}

// SQLiteBackend persists memories in a single-file store, one row per
// memory with its metadata serialized as JSON
type SQLiteBackend struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewMemoryStoreFailed("open "+path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewMemoryStoreFailed("open "+path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewMemoryStoreFailed("open "+path, err)
	}
	for _, pragma := range memoryPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.NewMemoryStoreFailed("open "+path, err)
		}
	}
	if _, err := db.ExecContext(ctx, memorySchema); err != nil {
		db.Close()
		return nil, errors.NewMemoryStoreFailed("init schema", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Add(ctx context.Context, messages []Message, userID string, metadata map[string]any) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return errors.NewMemoryStoreFailed("encode metadata", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range messages {
		if msg.Role != model.RoleAssistant || msg.Content == "" {
			continue
		}
		_, err := b.db.ExecContext(ctx,
			`INSERT INTO memory_entries (user_id, memory, metadata, created_at) VALUES (?, ?, ?, ?)`,
			userID, msg.Content, string(metadataJSON), time.Now().UnixMilli(),
		)
		if err != nil {
			return errors.NewMemoryStoreFailed("insert memory", err)
		}
	}
	return nil
}

func (b *SQLiteBackend) Search(ctx context.Context, params SearchParams) (SearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	b.mu.Lock()
	rows, err := b.db.QueryContext(ctx,
		`SELECT user_id, memory, metadata FROM memory_entries WHERE user_id = ? ORDER BY id`,
		params.UserID,
	)
	if err != nil {
		b.mu.Unlock()
		return SearchResult{}, errors.NewMemoryStoreFailed("search", err)
	}
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var metadataRaw sql.NullString
		if err := rows.Scan(&entry.UserID, &entry.Memory, &metadataRaw); err != nil {
			rows.Close()
			b.mu.Unlock()
			return SearchResult{}, errors.NewMemoryStoreFailed("search", err)
		}
		if metadataRaw.Valid && metadataRaw.String != "" {
			// Rows with unreadable metadata still count as memories
			_ = json.Unmarshal([]byte(metadataRaw.String), &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	closeErr := rows.Err()
	rows.Close()
	b.mu.Unlock()
	if closeErr != nil {
		return SearchResult{}, errors.NewMemoryStoreFailed("search", closeErr)
	}

	if len(params.Filters) > 0 {
		filtered := entries[:0]
		for _, entry := range entries {
			if matchesFilters(entry, params.Filters) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	queryLower := strings.ToLower(params.Query)
	var matches []Entry
	matched := make(map[int]bool)
	for i, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Memory), queryLower) {
			matches = append(matches, entry)
			matched[i] = true
		}
	}
	for i := len(entries) - 1; i >= 0 && len(matches) < limit; i-- {
		if !matched[i] {
			matches = append(matches, entries[i])
			matched[i] = true
		}
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return SearchResult{Results: matches}, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
