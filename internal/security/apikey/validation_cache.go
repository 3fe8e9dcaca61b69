package apikey

import (
	"sync"
	"time"
)

// DefaultValidationCacheTTL is the duration a validated key stays cached
// before the bcrypt comparison runs again
const DefaultValidationCacheTTL = 5 * time.Minute

type cacheEntry struct {
	key       APIKey
	expiresAt time.Time
}

// ValidationCache keeps recently validated API keys in memory, keyed by their
// clear value, so the bcrypt comparison does not run on every request.
// Expired entries are dropped lazily on read.
type ValidationCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

// NewValidationCache returns a new ValidationCache with the given entry TTL
func NewValidationCache(ttl time.Duration) *ValidationCache {
	if ttl <= 0 {
		ttl = DefaultValidationCacheTTL
	}
	return &ValidationCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached API key for a clear value, if present and not expired
func (c *ValidationCache) Get(keyValue string) (APIKey, bool) {
	c.mu.RLock()
	entry, ok := c.entries[keyValue]
	c.mu.RUnlock()
	if !ok {
		return APIKey{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, keyValue)
		c.mu.Unlock()
		return APIKey{}, false
	}
	if !entry.key.IsUsable() {
		return APIKey{}, false
	}
	return entry.key, true
}

// Set caches a validated API key under its clear value
func (c *ValidationCache) Set(keyValue string, key APIKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[keyValue] = cacheEntry{key: key, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate drops every cached entry. It is called after key updates,
// deactivations and deletions so stale grants do not outlive their TTL.
func (c *ValidationCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
