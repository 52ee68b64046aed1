package storage

import (
	"container/list"
	"sync"
	"time"
)

// cacheItem represents an item in the cache
type cacheItem struct {
	key       string
	value     interface{}
	expiresAt time.Time
	element   *list.Element
}

// MemoryCache implements an LRU cache with per-entry TTL
type MemoryCache struct {
	maxSize int
	items   map[string]*cacheItem
	lruList *list.List
	mu      sync.Mutex
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryCache creates a cache holding at most maxSize entries. When
// cleanupInterval is positive a goroutine sweeps expired entries until Close.
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}

	cache := &MemoryCache{
		maxSize: maxSize,
		items:   make(map[string]*cacheItem),
		lruList: list.New(),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cache.cleanupRoutine(cleanupInterval)
	}

	return cache
}

// Set adds or replaces an entry. A non-positive ttl means no expiry.
func (mc *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = mc.now().Add(ttl)
	}

	if item, exists := mc.items[key]; exists {
		item.value = value
		item.expiresAt = expiresAt
		mc.lruList.MoveToFront(item.element)
		return
	}

	item := &cacheItem{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	item.element = mc.lruList.PushFront(item)
	mc.items[key] = item

	if len(mc.items) > mc.maxSize {
		mc.evictOldest()
	}
}

// Get retrieves an entry and marks it recently used
func (mc *MemoryCache) Get(key string) (interface{}, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, exists := mc.items[key]
	if !exists {
		return nil, false
	}

	if mc.expired(item, mc.now()) {
		mc.deleteItem(item)
		return nil, false
	}

	mc.lruList.MoveToFront(item.element)
	return item.value, true
}

// Delete removes an entry
func (mc *MemoryCache) Delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if item, exists := mc.items[key]; exists {
		mc.deleteItem(item)
	}
}

// Size returns the current number of entries, expired ones included until
// they are swept
func (mc *MemoryCache) Size() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

// Close stops the cleanup goroutine
func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	return nil
}

func (mc *MemoryCache) expired(item *cacheItem, now time.Time) bool {
	return !item.expiresAt.IsZero() && now.After(item.expiresAt)
}

// evictOldest removes the least recently used item
func (mc *MemoryCache) evictOldest() {
	if element := mc.lruList.Back(); element != nil {
		mc.deleteItem(element.Value.(*cacheItem))
	}
}

// deleteItem removes an item from both map and list
func (mc *MemoryCache) deleteItem(item *cacheItem) {
	delete(mc.items, item.key)
	mc.lruList.Remove(item.element)
}

func (mc *MemoryCache) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.cleanupExpired()
		case <-mc.stop:
			return
		}
	}
}

// cleanupExpired removes all expired items
func (mc *MemoryCache) cleanupExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for _, item := range mc.items {
		if mc.expired(item, now) {
			mc.deleteItem(item)
		}
	}
}
