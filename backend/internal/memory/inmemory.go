package memory

import (
	"context"
	"strings"
	"sync"

	"askbob-medical/backend/internal/model"
)

// InMemoryBackend keeps memories in a slice. Useful for tests and for
// running without any external store.
type InMemoryBackend struct {
	mu      sync.Mutex
	entries []Entry
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{}
}

// Add stores the content of each assistant message as one memory
func (b *InMemoryBackend) Add(ctx context.Context, messages []Message, userID string, metadata map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range messages {
		if msg.Role != model.RoleAssistant || msg.Content == "" {
			continue
		}
		b.entries = append(b.entries, Entry{
			UserID:   userID,
			Memory:   msg.Content,
			Metadata: metadata,
		})
	}
	return nil
}

// Search returns substring matches first, then fills the remaining
// slots with the user's most recent memories so the caller always sees
// some context.
func (b *InMemoryBackend) Search(ctx context.Context, params SearchParams) (SearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	queryLower := strings.ToLower(params.Query)

	b.mu.Lock()
	var userEntries []Entry
	for _, entry := range b.entries {
		if entry.UserID == params.UserID {
			userEntries = append(userEntries, entry)
		}
	}
	b.mu.Unlock()

	var matches []Entry
	matched := make(map[int]bool)
	for i, entry := range userEntries {
		if len(params.Filters) > 0 && !matchesFilters(entry, params.Filters) {
			continue
		}
		if strings.Contains(strings.ToLower(entry.Memory), queryLower) {
			matches = append(matches, entry)
			matched[i] = true
		}
	}

	// Fill with recent history when the substring match comes up short
	for i := len(userEntries) - 1; i >= 0 && len(matches) < limit; i-- {
		if !matched[i] {
			matches = append(matches, userEntries[i])
			matched[i] = true
		}
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return SearchResult{Results: matches}, nil
}

func (b *InMemoryBackend) Close() error { return nil }
