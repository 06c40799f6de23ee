package memory

import (
	"context"
	"encoding/json"

	"askbob-medical/backend/internal/cache"
	"askbob-medical/backend/pkg/errors"
)

// CachedBackend wraps a Backend with the tiered query cache. Search
// results are cached under a key derived from the full parameter set;
// any write clears the whole cache, since a new memory can change the
// result of any query.
type CachedBackend struct {
	inner Backend
	cache *cache.Tiered
}

func NewCachedBackend(inner Backend, tiered *cache.Tiered) *CachedBackend {
	return &CachedBackend{inner: inner, cache: tiered}
}

func (b *CachedBackend) Add(ctx context.Context, messages []Message, userID string, metadata map[string]any) error {
	if err := b.inner.Add(ctx, messages, userID, metadata); err != nil {
		return err
	}
	return b.cache.Clear(ctx)
}

func (b *CachedBackend) Search(ctx context.Context, params SearchParams) (SearchResult, error) {
	key := cache.Key(cache.KeyParams{
		Query:     params.Query,
		UserID:    params.UserID,
		Limit:     params.Limit,
		Filters:   params.Filters,
		Threshold: params.Threshold,
	})

	cached, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		return SearchResult{}, err
	}
	if ok {
		var result SearchResult
		if err := json.Unmarshal(cached, &result); err != nil {
			return SearchResult{}, errors.NewCacheStoreFailed(key, err)
		}
		return result, nil
	}

	result, err := b.inner.Search(ctx, params)
	if err != nil {
		return SearchResult{}, err
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return SearchResult{}, errors.NewCacheStoreFailed(key, err)
	}
	if err := b.cache.Set(ctx, key, encoded); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

func (b *CachedBackend) Close() error {
	return b.inner.Close()
}
