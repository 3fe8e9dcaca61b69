package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	_globalMu sync.RWMutex
	_global   *redis.Client
)

// C is used to access the global redis client singleton
func C() *redis.Client {
	_globalMu.RLock()
	defer _globalMu.RUnlock()
	return _global
}

// ReplaceGlobals affect a new client to the global redis client singleton
func ReplaceGlobals(client *redis.Client) func() {
	_globalMu.Lock()
	defer _globalMu.Unlock()

	prev := _global
	_global = client
	return func() { ReplaceGlobals(prev) }
}

// NewClient opens a new connection on a redis instance and verifies it with a ping
func NewClient(address string, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
