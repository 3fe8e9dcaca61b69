package security

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter guards the authentication endpoint against brute force attempts.
// Each client key (usually the remote IP) owns a token bucket, idle buckets
// are collected by a janitor goroutine.
type RateLimiter struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption alters the construction of a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithIdleTTL replaces the delay after which an unused client bucket is collected
func WithIdleTTL(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) { rl.idleTTL = d }
}

// WithCleanupEvery replaces the janitor period
func WithCleanupEvery(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) { rl.cleanupEvery = d }
}

// NewRateLimiter returns a new instance of RateLimiter allowing rps requests
// per second with the input burst size for each client key
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether the client key may proceed, consuming one token from its bucket
func (rl *RateLimiter) Allow(key string) bool {
	return rl.get(key).Allow()
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ent, ok := rl.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup removes the client buckets unused for longer than the idle TTL
func (rl *RateLimiter) Cleanup() {
	cutoff := time.Now().Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, ent := range rl.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(rl.entries, k)
		}
	}
}

// StartJanitor starts a goroutine collecting idle client buckets periodically.
// It stops when the input context is cancelled.
func (rl *RateLimiter) StartJanitor(ctx context.Context) {
	if rl.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(rl.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				rl.Cleanup()
			}
		}
	}()
}
