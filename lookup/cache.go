package lookup

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheCapacity bounds the number of remembered lookups.
const DefaultCacheCapacity = 256

// CacheStats counts cache activity since creation or the last Purge.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a fixed-capacity LRU of successful lookup results. A zero TTL
// keeps entries until they are evicted by capacity; a positive TTL also
// drops entries older than TTL on read.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
	stats    CacheStats
	now      func() time.Time
}

type cacheEntry struct {
	key      string
	result   Result
	storedAt time.Time
}

// NewCache creates a cache. A non-positive capacity selects
// DefaultCacheCapacity.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the result stored under key and marks it recently used.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return Result{}, false
	}

	ent := elem.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(ent.storedAt) > c.ttl {
		c.lru.Remove(elem)
		delete(c.items, key)
		c.stats.Misses++
		return Result{}, false
	}

	c.lru.MoveToFront(elem)
	c.stats.Hits++
	return ent.result, true
}

// Put stores result under key. An existing entry is replaced
// (last writer wins). Failed results are ignored.
func (c *Cache) Put(key string, result Result) {
	if !result.OK() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		ent := elem.Value.(*cacheEntry)
		ent.result = result
		ent.storedAt = now
		return
	}

	c.items[key] = c.lru.PushFront(&cacheEntry{key: key, result: result, storedAt: now})

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
		c.stats.Evictions++
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge removes every entry and resets the counters.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.lru.Init()
	c.stats = CacheStats{}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
