package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c := New()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, Stats{Hits: 2, Misses: 1}, c.Stats())
}

func TestCacheNilValueIsPresent(t *testing.T) {
	c := New()
	c.Set("null", nil)
	assert.True(t, c.Has("null"))
}

func TestCacheHasCountsLookups(t *testing.T) {
	c := New()
	c.Set("k", "v")
	assert.True(t, c.Has("k"))
	assert.False(t, c.Has("other"))
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestCacheDeleteAndPurge(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	assert.False(t, c.Has("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Stats{}, c.Stats())
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithTTL(time.Minute), withClock(func() time.Time { return now }))

	c.Set("k", "v")
	now = now.Add(30 * time.Second)
	assert.True(t, c.Has("k"))

	now = now.Add(30 * time.Second)
	assert.False(t, c.Has("k"), "entry expires once the TTL has elapsed")
	assert.Equal(t, 1, c.Len(), "expired entries are not evicted")

	c.Set("k", "fresh")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestCacheNonPositiveTTLMeansForever(t *testing.T) {
	c := New(WithTTL(-time.Second))
	c.Set("k", "v")
	assert.True(t, c.Has("k"))
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Set(key, i)
			c.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, int64(50), c.Stats().Hits)
}
