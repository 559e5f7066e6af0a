// Package ratelimit provides a per-key sliding window limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/decred/slog"
)

const (
	DefaultLimit         = 5
	DefaultWindow        = time.Second
	DefaultSweepInterval = 10 * time.Second
)

// Config configures a SlidingWindow.
type Config struct {
	Limit  int           // hits allowed per window
	Window time.Duration // window length
	Log    slog.Logger
}

// SlidingWindow allows at most Limit hits per key within any Window-long
// interval. Rejected hits are not recorded, so a throttled caller regains
// budget as soon as its oldest accepted hit ages out.
type SlidingWindow struct {
	log    slog.Logger
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// New creates a limiter. Zero values in cfg take the defaults.
func New(cfg Config) *SlidingWindow {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	return &SlidingWindow{
		log:    cfg.Log,
		limit:  cfg.Limit,
		window: cfg.Window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// prune drops timestamps at or before cutoff. ts is sorted ascending.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// Allow records a hit for key and reports whether it fits within the limit.
func (l *SlidingWindow) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.hits[key], now.Add(-l.window))
	if len(ts) >= l.limit {
		l.hits[key] = ts
		l.log.Debugf("rate limit hit for %s (%d in %v)", key, len(ts), l.window)
		return false
	}
	l.hits[key] = append(ts, now)
	return true
}

// Sweep forgets keys whose hits have all left the window and returns how
// many were removed.
func (l *SlidingWindow) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, ts := range l.hits {
		ts = prune(ts, cutoff)
		if len(ts) == 0 {
			delete(l.hits, key)
			removed++
			continue
		}
		l.hits[key] = ts
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// Run sweeps stale keys every interval until ctx is done.
func (l *SlidingWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.log.Tracef("swept %d idle rate limit entries", n)
			}
		}
	}
}
