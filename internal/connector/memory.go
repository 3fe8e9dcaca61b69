package connector

import (
	"context"
	"sync"
	"time"
)

// MemoryDatabase is an in-process Database connector implementation, used by supervised
// services with no external storage backend and by tests
type MemoryDatabase struct {
	mu        sync.RWMutex
	connected bool
}

// NewMemoryDatabase returns a new instance of MemoryDatabase
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{}
}

func (d *MemoryDatabase) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return nil
}

func (d *MemoryDatabase) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	return nil
}

// Ping verifies the backend link
func (d *MemoryDatabase) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return ErrNotConnected
	}
	return nil
}

func (d *MemoryDatabase) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return nil, ErrNotConnected
	}
	return []map[string]interface{}{}, nil
}

func (d *MemoryDatabase) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return 0, ErrNotConnected
	}
	return 0, nil
}

type memoryCacheEntry struct {
	value    string
	expireAt time.Time
}

// MemoryCache is an in-process Cache connector implementation with per-key time-to-live
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
}

// NewMemoryCache returns a new instance of MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryCacheEntry),
	}
}

// Ping verifies the backend link
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound when missing or expired
func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", ErrKeyNotFound
	}
	if !entry.expireAt.IsZero() && time.Now().After(entry.expireAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", ErrKeyNotFound
	}
	return entry.value, nil
}

// Set stores a value under key with the input time-to-live (0 meaning no expiration)
func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryCacheEntry{value: value}
	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Delete removes a key (removing a missing key is not an error)
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
