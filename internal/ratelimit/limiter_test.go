package ratelimit

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllow_UnderLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerWindow: 3, Clock: clock})
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if result := limiter.Allow("192.0.2.1"); !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestAllow_BlocksOverLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerWindow: 2, Clock: clock})
	defer limiter.Close()

	limiter.Allow("192.0.2.1")
	limiter.Allow("192.0.2.1")

	result := limiter.Allow("192.0.2.1")
	if result.Allowed {
		t.Fatal("third request in window should be blocked")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Fatalf("retry after %v out of range", result.RetryAfter)
	}

	// A different client is unaffected.
	if result := limiter.Allow("192.0.2.2"); !result.Allowed {
		t.Fatal("other client should be allowed")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerWindow: 1, Clock: clock})
	defer limiter.Close()

	limiter.Allow("192.0.2.1")
	if result := limiter.Allow("192.0.2.1"); result.Allowed {
		t.Fatal("second request should be blocked")
	}

	clock.Advance(61 * time.Second)
	if result := limiter.Allow("192.0.2.1"); !result.Allowed {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"

	if ip := GetClientIP(req, false); ip != "203.0.113.7" {
		t.Fatalf("direct IP %q, want 203.0.113.7", ip)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	if ip := GetClientIP(req, false); ip != "203.0.113.7" {
		t.Fatalf("untrusted proxy should ignore XFF, got %q", ip)
	}
	if ip := GetClientIP(req, true); ip != "198.51.100.9" {
		t.Fatalf("trusted proxy should use public XFF entry, got %q", ip)
	}
}
