package connector

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when an operation is issued on a database connector before Connect
	ErrNotConnected = errors.New("connector is not connected")
	// ErrKeyNotFound is returned by a cache connector when the requested key does not exist
	ErrKeyNotFound = errors.New("key not found")
)

// Database is the capability interface owned by every supervised service requiring
// a relational storage backend. Implementations must be safe for concurrent use.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	Execute(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// Cache is the capability interface owned by every supervised service requiring
// a key-value cache backend. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by connectors able to cheaply verify their backend link
type Pinger interface {
	Ping(ctx context.Context) error
}
