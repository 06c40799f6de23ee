// Package memory holds the conversational memory backends. A backend
// stores assistant turns as free-text memories and answers searches
// with a substring match over the stored text, filled out with the
// most recent entries when the match set comes up short. The Backend
// seam is where an external semantic memory service would plug in.
package memory

import (
	"context"

	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/config"
	"askbob-medical/backend/pkg/errors"
)

// Message is one conversational turn handed to Add. Only assistant
// turns are persisted; user turns provide context, not memories.
type Message struct {
	Role    model.ActorRole `json:"role"`
	Content string          `json:"content"`
}

// Entry is one stored memory as returned by Search
type Entry struct {
	UserID   string         `json:"user_id"`
	Memory   string         `json:"memory"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DefaultSearchLimit applies when SearchParams.Limit is non-positive
const DefaultSearchLimit = 3

// SearchParams carries everything that determines a search result
type SearchParams struct {
	Query     string         `json:"query"`
	UserID    string         `json:"user_id"`
	Limit     int            `json:"limit"`
	Filters   map[string]any `json:"filters,omitempty"`
	Threshold *float64       `json:"threshold,omitempty"`
}

// SearchResult wraps the matched entries
type SearchResult struct {
	Results []Entry `json:"results"`
}

// Backend is the memory store contract shared by all implementations
type Backend interface {
	Add(ctx context.Context, messages []Message, userID string, metadata map[string]any) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	Close() error
}

// Open selects a backend from config. The returned backend is not
// cache-wrapped; see NewCachedBackend.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.MemoryBackend {
	case "memory":
		return NewInMemoryBackend(), nil
	case "sqlite":
		return NewSQLiteBackend(ctx, cfg.MemorySQLitePath)
	default:
		return nil, errors.NewUnsupportedProvider(cfg.MemoryBackend)
	}
}

// matchesFilters reports whether every filter key is present in the
// entry metadata with an equal value
func matchesFilters(entry Entry, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := entry.Metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}
