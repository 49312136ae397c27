package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTextCache(2)
	c.Put("a", "alpha")
	c.Put("b", "beta")

	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Put("c", "gamma")

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "alpha", v)

	assert.Equal(t, 2, c.Len())
	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 2, stats.Capacity)
}

func TestTextCacheUpdate(t *testing.T) {
	c := NewTextCache(1)
	c.Put("a", "one")
	c.Put("a", "two")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, c.Len())
}

func TestNilTextCache(t *testing.T) {
	c := NewTextCache(0)
	assert.Nil(t, c)

	c.Put("a", "one")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, CacheStats{}, c.Stats())
}
