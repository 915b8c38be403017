package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(limit int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	l := New(Config{Limit: limit, Window: window}, log.NewNop())
	l.now = clock.Now
	return l, clock
}

func TestAdmit_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	for i := range 5 {
		d := l.Admit("10.0.0.1")
		if !d.Allowed {
			t.Fatalf("Admit() denied request %d (limit 5)", i+1)
		}
		if want := 5 - (i + 1); d.Remaining != want {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}
}

func TestAdmit_DeniesOverLimitWithRetryAfter(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)

	for range 3 {
		l.Admit("10.0.0.1")
	}

	d := l.Admit("10.0.0.1")
	if d.Allowed {
		t.Fatal("Admit() allowed request over the limit")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want > 0", d.RetryAfter)
	}

	// After waiting RetryAfter the oldest timestamp has left the window.
	clock.Advance(d.RetryAfter + time.Millisecond)
	if d = l.Admit("10.0.0.1"); !d.Allowed {
		t.Error("Admit() denied after waiting RetryAfter")
	}
}

func TestAdmit_TwentySixthDenied(t *testing.T) {
	l, _ := newTestLimiter(25, time.Minute)

	for i := range 25 {
		if d := l.Admit("198.51.100.7"); !d.Allowed {
			t.Fatalf("Admit() denied request %d of 25", i+1)
		}
	}
	if d := l.Admit("198.51.100.7"); d.Allowed {
		t.Error("26th request within the window should be denied")
	}
}

func TestAdmit_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)

	l.Admit("1.1.1.1")
	l.Admit("1.1.1.1")
	if d := l.Admit("1.1.1.1"); d.Allowed {
		t.Fatal("first key should be exhausted")
	}
	if d := l.Admit("2.2.2.2"); !d.Allowed {
		t.Error("a different key should still be admitted")
	}
}

func TestAdmit_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Admit("k")
	clock.Advance(30 * time.Second)
	l.Admit("k")

	// First admission has 30s left in the window.
	if d := l.Admit("k"); d.Allowed {
		t.Fatal("third request inside the window should be denied")
	}

	clock.Advance(31 * time.Second)
	if d := l.Admit("k"); !d.Allowed {
		t.Error("request should be admitted after the oldest timestamp expired")
	}
}

func TestAdmit_ConcurrentSameKey(t *testing.T) {
	l := New(Config{Limit: 50, Window: time.Minute}, log.NewNop())

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := l.Admit("shared"); d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50 (no lost updates)", allowed)
	}
}

func TestReap_RemovesEmptyEntries(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	l.Admit("a")
	l.Admit("b")
	if got := l.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	clock.Advance(2 * time.Minute)
	l.Admit("b") // b stays live, a goes stale

	if removed := l.reap(); removed != 1 {
		t.Errorf("reap() removed %d entries, want 1", removed)
	}
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after reap, want 1", got)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	l := New(Config{}, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}
