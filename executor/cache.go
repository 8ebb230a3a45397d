package executor

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ttlCache is a fixed-capacity key/value store with per-entry expiry.
// Entries are evicted when stale or when capacity is exceeded (least
// recently used first). All operations hold the mutex, so concurrent
// readers never observe a half-evicted entry.
type ttlCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[CacheKey]*list.Element
	order    *list.List // front is most recently used

	// now is replaceable in tests to simulate clock advancement
	now func() time.Time
}

type cacheEntry struct {
	key      CacheKey
	value    any
	storedAt time.Time
}

func newTTLCache(cfg CacheConfig) *ttlCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	return &ttlCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[CacheKey]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// get returns the cached value for key if it is still fresh. Stale
// entries are removed on access.
func (c *ttlCache) get(key CacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.removeLocked(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// put stores value under key, evicting the least recently used entry if
// the cache is at capacity.
func (c *ttlCache) put(key CacheKey, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.storedAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, value: value, storedAt: c.now()})
	c.entries[key] = elem

	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

func (c *ttlCache) invalidate(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
}

// invalidatePrefix removes every entry whose key starts with prefix.
// Used to drop all reads touching a spreadsheet after a mutation.
func (c *ttlCache) invalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.entries {
		if strings.HasPrefix(string(key), prefix) {
			c.removeLocked(elem)
		}
	}
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]*list.Element)
	c.order.Init()

	log.Debug().Msg("Metadata cache cleared")
}

func (c *ttlCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}

// CacheStats represents cache occupancy
type CacheStats struct {
	ValidEntries   int
	ExpiredEntries int
	TotalEntries   int
}

func (c *ttlCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats CacheStats
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry)
		if c.now().Sub(entry.storedAt) < c.ttl {
			stats.ValidEntries++
		} else {
			stats.ExpiredEntries++
		}
	}
	stats.TotalEntries = stats.ValidEntries + stats.ExpiredEntries

	return stats
}
