package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int) (*SlidingWindow, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l := New(Config{Limit: limit, Window: time.Second})
	l.now = clock.Now
	return l, clock
}

func TestAllowWithinLimit(t *testing.T) {
	l, clock := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		require.True(t, l.Allow("alice"), "hit %d", i)
		clock.Advance(10 * time.Millisecond)
	}
	assert.False(t, l.Allow("alice"), "sixth hit within a second is rejected")
	assert.False(t, l.Allow("alice"), "rejection is stable")

	// Other users have their own budget.
	assert.True(t, l.Allow("bob"))
}

func TestWindowSlides(t *testing.T) {
	l, clock := newTestLimiter(2)

	require.True(t, l.Allow("u"))
	clock.Advance(600 * time.Millisecond)
	require.True(t, l.Allow("u"))
	require.False(t, l.Allow("u"))

	// The first hit leaves the window after one second; the second has not.
	clock.Advance(400 * time.Millisecond)
	assert.True(t, l.Allow("u"))
	assert.False(t, l.Allow("u"))

	clock.Advance(time.Second)
	assert.True(t, l.Allow("u"))
}

func TestRejectedHitsAreNotRecorded(t *testing.T) {
	l, clock := newTestLimiter(1)

	require.True(t, l.Allow("u"))
	for i := 0; i < 10; i++ {
		clock.Advance(50 * time.Millisecond)
		require.False(t, l.Allow("u"))
	}
	clock.Advance(500 * time.Millisecond)
	assert.True(t, l.Allow("u"), "rejected hits must not extend the window")
}

func TestSweepRemovesIdleKeys(t *testing.T) {
	l, clock := newTestLimiter(5)

	l.Allow("a")
	clock.Advance(500 * time.Millisecond)
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	clock.Advance(600 * time.Millisecond)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	clock.Advance(time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Zero(t, l.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New(Config{Limit: 1, Window: time.Millisecond})
	l.Allow("x")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDefaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, DefaultLimit, l.limit)
	assert.Equal(t, DefaultWindow, l.window)
}
