package connector

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryDatabaseLifecycle(t *testing.T) {
	db := NewMemoryDatabase()
	ctx := context.Background()

	if err := db.Ping(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected before connect, got %v", err)
	}
	if _, err := db.Query(ctx, "select 1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected on query before connect, got %v", err)
	}

	if err := db.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Errorf("ping after connect: %v", err)
	}
	rows, err := db.Query(ctx, "select 1")
	if err != nil {
		t.Fatalf("query after connect: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty result set, got %d rows", len(rows))
	}

	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Ping(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected after close, got %v", err)
	}
}

func TestMemoryCacheSetGetDelete(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if _, err := cache.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := cache.Set(ctx, "key1", "value1", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := cache.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "value1" {
		t.Errorf("expected value1, got %s", value)
	}

	if err := cache.Delete(ctx, "key1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Get(ctx, "key1"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "key1", "value1", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := cache.Get(ctx, "key1"); err != nil {
		t.Fatalf("get before expiration: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Get(ctx, "key1"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after expiration, got %v", err)
	}
}
