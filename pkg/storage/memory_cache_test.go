package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryCache(10, 0)
	defer cache.Close()

	cache.Set("a", 1, 0)
	v, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	cache.Set("a", 2, 0)
	v, _ = cache.Get("a")
	assert.Equal(t, 2, v, "overwrite")

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewMemoryCache(2, 0)
	defer cache.Close()

	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)
	cache.Get("a") // a is now most recent
	cache.Set("c", 3, 0)

	_, ok := cache.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = cache.Get("a")
	assert.True(t, ok, "a should still be cached")
	assert.Equal(t, 2, cache.Size())
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10, 0)
	defer cache.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("short", "x", time.Minute)
	cache.Set("forever", "y", 0)

	now = now.Add(2 * time.Minute)

	_, ok := cache.Get("short")
	assert.False(t, ok, "short should have expired")
	_, ok = cache.Get("forever")
	assert.True(t, ok, "entries without ttl never expire")
}

func TestMemoryCacheCleanupExpired(t *testing.T) {
	cache := NewMemoryCache(10, 0)
	defer cache.Close()

	now := time.Now()
	cache.now = func() time.Time { return now }
	for i := 0; i < 5; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i, time.Second)
	}
	cache.Set("keep", 1, time.Hour)

	now = now.Add(time.Minute)
	cache.cleanupExpired()

	assert.Equal(t, 1, cache.Size())
}

func TestMemoryCacheDeleteAndClose(t *testing.T) {
	cache := NewMemoryCache(10, time.Millisecond)
	cache.Set("a", 1, 0)
	cache.Delete("a")
	_, ok := cache.Get("a")
	assert.False(t, ok)

	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close(), "second Close")
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(50, 0)
	defer cache.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				cache.Set(key, i, time.Minute)
				cache.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Size(), 50)
}
