package match

import (
	"container/list"
	"sync"
	"time"

	"github.com/norsteel/takeoff/internal/models"
)

// CandidateCache is an LRU cache with TTL for catalog candidate lists,
// keyed by the candidate query. Repeated items in one document (and across
// documents from the same project) hit the same candidate sets.
type CandidateCache struct {
	capacity int
	ttl      time.Duration
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key       string
	value     []models.Material
	expiresAt time.Time
}

// NewCandidateCache creates a cache holding up to capacity entries for ttl.
func NewCandidateCache(capacity int, ttl time.Duration) *CandidateCache {
	return &CandidateCache{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached candidates for key if present and fresh.
func (c *CandidateCache) Get(key string) ([]models.Material, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(elem)
		delete(c.cache, entry.key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return entry.value, true
}

// Set stores candidates for key, evicting the oldest entry if at capacity.
func (c *CandidateCache) Set(key string, value []models.Material) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(c.ttl)
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expires
		return
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: expires}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries, expired or not.
func (c *CandidateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
