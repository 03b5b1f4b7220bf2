package httpapi

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryRateLimiter_WindowResets(t *testing.T) {
	clk := &steppingClock{now: time.Unix(1000, 0)}
	rl := newMemoryRateLimiter(clk.Now)
	t.Cleanup(rl.Close)

	for i := 1; i <= 3; i++ {
		if d := rl.Allow("ip:1", 3, time.Minute); !d.Allowed || d.Count != i {
			t.Fatalf("request %d: %+v", i, d)
		}
	}
	if d := rl.Allow("ip:1", 3, time.Minute); d.Allowed {
		t.Fatalf("expected denial, got %+v", d)
	}
	if d := rl.Allow("ip:2", 3, time.Minute); !d.Allowed {
		t.Fatalf("other keys must be independent, got %+v", d)
	}

	clk.Advance(61 * time.Second)
	if d := rl.Allow("ip:1", 3, time.Minute); !d.Allowed || d.Count != 1 {
		t.Fatalf("expected fresh window, got %+v", d)
	}

	rl.cleanup(clk.Now().Add(2 * time.Minute))
	rl.mu.Lock()
	n := len(rl.entries)
	rl.mu.Unlock()
	if n != 0 {
		t.Fatalf("entries=%d after cleanup", n)
	}
}

func TestMemoryRateLimiter_ZeroLimitAllows(t *testing.T) {
	rl := newMemoryRateLimiter(time.Now)
	t.Cleanup(rl.Close)
	for i := 0; i < 10; i++ {
		if !rl.Allow("k", 0, time.Minute).Allowed {
			t.Fatalf("limit 0 must disable limiting")
		}
	}
}

func TestRateLimitKeyIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	if got := rateLimitKeyIP(r); got != "ip:10.0.0.7" {
		t.Fatalf("key=%q", got)
	}
	r.RemoteAddr = "10.0.0.8"
	if got := rateLimitKeyIP(r); got != "ip:10.0.0.8" {
		t.Fatalf("key=%q", got)
	}
}
