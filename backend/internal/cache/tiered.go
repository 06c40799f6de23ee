package cache

import "context"

// Tiered composes the volatile LRU tier with an optional durable SQLite
// tier. Reads check L1 first and promote L2 hits into L1; writes go
// through to both tiers unconditionally.
type Tiered struct {
	l1 *LRU
	l2 *SQLiteCache // nil when the durable tier is disabled
}

// NewTiered builds the composite cache. l2 may be nil.
func NewTiered(l1 *LRU, l2 *SQLiteCache) *Tiered {
	return &Tiered{l1: l1, l2: l2}
}

// Get returns the cached value for key, promoting a durable-tier hit
// into the fast tier before returning.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if value, ok := t.l1.Get(key); ok {
		return value, true, nil
	}
	if t.l2 == nil {
		return nil, false, nil
	}
	value, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	t.l1.Set(key, value)
	return value, true, nil
}

// Set writes the value through to both tiers
func (t *Tiered) Set(ctx context.Context, key string, value []byte) error {
	t.l1.Set(key, value)
	if t.l2 == nil {
		return nil
	}
	return t.l2.Set(ctx, key, value)
}

// Clear empties both tiers
func (t *Tiered) Clear(ctx context.Context) error {
	t.l1.Clear()
	if t.l2 == nil {
		return nil
	}
	return t.l2.Clear(ctx)
}
