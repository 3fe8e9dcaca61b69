package security

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Error("request within the burst should be allowed, attempt", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request beyond the burst should be denied")
	}
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.Allow("10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("second request on the same key should be denied")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("another key should own its own bucket")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, WithIdleTTL(time.Nanosecond))

	rl.Allow("10.0.0.1")
	if len(rl.entries) != 1 {
		t.Error("bucket should be registered")
	}

	time.Sleep(time.Millisecond)
	rl.Cleanup()
	if len(rl.entries) != 0 {
		t.Error("idle bucket should be collected")
	}
}
