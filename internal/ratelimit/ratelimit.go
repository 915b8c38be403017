// Package ratelimit implements per-key sliding-window admission control for
// the inbound chat path.
//
// Each key (typically a client IP) holds the timestamps of its admitted
// requests inside the trailing window. A request is admitted when fewer than
// Limit timestamps remain in the window; otherwise the caller is told how
// long to wait before retrying.
//
// State is in-memory only. The limiter exists for abuse mitigation, not hard
// quotas, so losing it on restart is acceptable.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default admission parameters, matching the production chat endpoint.
const (
	DefaultLimit  = 25
	DefaultWindow = time.Minute

	// reapInterval is how often the background reaper scans for stale keys.
	reapInterval = 5 * time.Minute
)

// Config configures a Limiter.
type Config struct {
	// Limit is the maximum number of admissions per key inside Window.
	// Zero uses DefaultLimit.
	Limit int

	// Window is the trailing window length. Zero uses DefaultWindow.
	Window time.Duration
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int           // admissions left in the current window
	RetryAfter time.Duration // > 0 only when Allowed is false
}

// entry holds the admission timestamps for a single key.
// Timestamps are always sorted ascending and all lie within
// [now-window, now] after any check.
type entry struct {
	timestamps []time.Time
}

// Limiter is a sliding-window rate limiter keyed by client identity.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	window  time.Duration
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Limiter. logger may be nil.
func New(cfg Config, logger *slog.Logger) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   cfg.Limit,
		window:  cfg.Window,
		logger:  logger,
		now:     time.Now,
	}
}

// Admit checks whether a request for key is allowed right now.
// The check-and-append is atomic per key: concurrent callers for the same
// key never observe a lost update.
func (l *Limiter) Admit(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}

	// Drop timestamps that fell out of the window. Timestamps are sorted
	// ascending, so the survivors are a suffix.
	i := 0
	for i < len(e.timestamps) && !e.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		e.timestamps = append(e.timestamps[:0], e.timestamps[i:]...)
	}

	if len(e.timestamps) >= l.limit {
		oldest := e.timestamps[0]
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: oldest.Add(l.window).Sub(now),
		}
	}

	e.timestamps = append(e.timestamps, now)
	return Decision{
		Allowed:   true,
		Remaining: l.limit - len(e.timestamps),
	}
}

// Run starts the background reaper and blocks until ctx is canceled.
// The reaper bounds memory under sustained load from many distinct keys by
// removing entries whose timestamps have all expired.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := l.reap()
			if removed > 0 {
				l.logger.Debug("reaped stale rate limit entries", "removed", removed)
			}
		}
	}
}

// reap drops expired timestamps from every entry and deletes entries left
// empty. Returns the number of deleted keys.
func (l *Limiter) reap() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	removed := 0
	for key, e := range l.entries {
		i := 0
		for i < len(e.timestamps) && !e.timestamps[i].After(cutoff) {
			i++
		}
		if i > 0 {
			e.timestamps = append(e.timestamps[:0], e.timestamps[i:]...)
		}
		if len(e.timestamps) == 0 {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys. Intended for tests and stats.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
