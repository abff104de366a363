package search

import (
	"container/list"
	"sync"

	"github.com/hyperjump/petqa/internal/models"
)

// ResultCache is a bounded first-in-first-out cache of ranked results. Reads do not
// affect eviction order.
type ResultCache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key     string
	results []models.QueryResult
}

// NewResultCache creates a cache holding at most capacity keys. A non-positive capacity
// disables caching.
func NewResultCache(capacity int) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// CacheKey combines a normalized query with the serialized options.
func CacheKey(normalizedQuery string, opts models.SearchOptions) string {
	return normalizedQuery + "\x00" + opts.Key()
}

// Get returns the results stored under key. The slice must not be modified.
func (c *ResultCache) Get(key string) ([]models.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		return elem.Value.(*cacheEntry).results, true
	}
	return nil, false
}

// Put stores results under key. A new key evicts the earliest-inserted key when the cache
// is full; an existing key gets the new value and keeps its position.
func (c *ResultCache) Put(key string, results []models.QueryResult) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).results = results
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, results: results})
}

// Len returns the number of cached keys.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of keys.
func (c *ResultCache) Capacity() int { return c.capacity }
