package cache

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, clock *fakeClock) Store {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	opts := []Option{WithSweepInterval(0)}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	s := NewInMemory(ctx, opts...)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t, nil)
	_, found := s.Get("test")
	assert.False(t, found)
	s.Set("test", "value", time.Minute)
	val, found := s.Get("test")
	assert.True(t, found)
	assert.Equal(t, "value", val)
	assert.True(t, s.Has("test"))
	assert.Equal(t, 1, s.Len())
}

func TestExpiryCorrectness(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	s := newTestStore(t, clock)
	s.Set("k", 5, 100*time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	val, found := s.Get("k")
	assert.True(t, found)
	assert.Equal(t, 5, val)

	clock.Advance(100 * time.Millisecond)
	_, found = s.Get("k")
	assert.False(t, found)
}

func TestExpiryAtExactDeadline(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	s := newTestStore(t, clock)
	s.Set("k", "v", time.Second)
	clock.Advance(time.Second)
	_, found := s.Get("k")
	assert.False(t, found, "entry at exactly ttl after set must be stale")
}

func TestLazyExpiryWithoutSweep(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	s := newTestStore(t, clock)
	s.Set("stale", "v", time.Second)
	clock.Advance(2 * time.Second)

	// no sweep is running; the stale entry is still resident
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Has("stale"))
	// the failed read removed it
	assert.Equal(t, 0, s.Len())
}

func TestBackgroundSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewInMemory(ctx, WithSweepInterval(20*time.Millisecond))
	defer s.Close()
	s.Set("a", "v", 10*time.Millisecond)
	s.Set("b", "v", time.Minute)
	assert.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Has("b"))
}

func TestOverwriteResetsTimer(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	s := newTestStore(t, clock)
	s.Set("k", "first", time.Second)
	clock.Advance(900 * time.Millisecond)
	s.Set("k", "second", time.Second)
	assert.Equal(t, 1, s.Len())

	// the first entry's deadline has passed; the second's governs
	clock.Advance(200 * time.Millisecond)
	val, found := s.Get("k")
	require.True(t, found)
	assert.Equal(t, "second", val)

	clock.Advance(time.Second)
	_, found = s.Get("k")
	assert.False(t, found)
}

func TestNilValueIsCached(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("absent", nil, time.Minute)
	assert.True(t, s.Has("absent"))
	val, found := s.Get("absent")
	assert.True(t, found)
	assert.Nil(t, val)
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewInMemory(ctx, WithSweepInterval(0), WithClock(clock.Now), WithDefaultTTL(10*time.Second))
	defer s.Close()
	s.Set("k", "v", 0)
	clock.Advance(9 * time.Second)
	assert.True(t, s.Has("k"))
	clock.Advance(2 * time.Second)
	assert.False(t, s.Has("k"))
}

func TestInvalidate(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("k", "v", time.Minute)
	assert.True(t, s.Invalidate("k"))
	assert.False(t, s.Has("k"))
	assert.False(t, s.Invalidate("k"))
}

func TestInvalidatePatternIsolation(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("stats:p1:week", 1, time.Minute)
	s.Set("lastevent:p1:outing", 2, time.Minute)
	s.Set("stats:p10:week", 3, time.Minute)
	s.Set("stats:p2:week", 4, time.Minute)

	removed, err := s.InvalidatePattern(`^[a-z]+:p1:`)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, s.Has("stats:p1:week"))
	assert.False(t, s.Has("lastevent:p1:outing"))
	assert.True(t, s.Has("stats:p10:week"), "p10 must not match a p1-scoped pattern")
	assert.True(t, s.Has("stats:p2:week"))
}

func TestInvalidatePatternBadRegex(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("k", "v", time.Minute)
	removed, err := s.InvalidatePattern(`[`)
	assert.Error(t, err)
	assert.Zero(t, removed)
	assert.True(t, s.Has("k"))
}

func TestInvalidateMatching(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("history:p1:1:20", 1, time.Minute)
	s.Set("history:p1:2:20", 2, time.Minute)
	s.Set("analytics:p1:streak", 3, time.Minute)
	removed := s.InvalidateMatching(regexp.MustCompile(`^history:p1:`))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Len())
}

func TestClear(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Clear()
	assert.Zero(t, s.Len())
	assert.False(t, s.Has("a"))
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewInMemory(ctx, WithSweepInterval(time.Second))
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	// synchronous operations still work after Close
	s.Set("k", "v", time.Minute)
	assert.True(t, s.Has("k"))
}
