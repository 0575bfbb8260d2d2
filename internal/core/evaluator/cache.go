package evaluator

import "sync"

// Cache stores completed outcome maps by configuration key. Entries live until
// Clear; there is no eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*OutcomeMap
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*OutcomeMap)}
}

// Get returns the map stored under key.
func (c *Cache) Get(key string) (*OutcomeMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[key]
	return m, ok
}

// Set stores m under key. If another map is already stored, the existing one
// is kept and returned so every caller shares a single instance.
func (c *Cache) Set(key string, m *OutcomeMap) *OutcomeMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*OutcomeMap)
	}
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = m
	return m
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Size returns the number of stored maps.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
