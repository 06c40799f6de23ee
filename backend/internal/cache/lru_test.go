package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRU_SetGetAndEvict(t *testing.T) {
	c := NewLRU(2, 10*time.Second)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), v)
}

func TestLRU_AccessRefreshesRecency(t *testing.T) {
	c := NewLRU(2, 0)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	// Touch a so b becomes the eviction candidate
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", []byte("3"))

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRU_SetRefreshesExisting(t *testing.T) {
	c := NewLRU(2, 0)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("a", []byte("1b"))
	c.Set("c", []byte("3"))

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1b"), v)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU(1, 50*time.Millisecond)
	c.Set("a", []byte("1"))

	_, ok := c.Get("a")
	assert.True(t, ok, "entry should be retrievable before expiry")

	time.Sleep(55 * time.Millisecond)

	_, ok = c.Get("a")
	assert.False(t, ok, "entry should expire after TTL")
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted eagerly on access")
}

func TestLRU_ZeroTTLNeverExpires(t *testing.T) {
	c := NewLRU(1, 0)
	c.Set("a", []byte("1"))
	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU(4, 0)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
