package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
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

func TestMemoryRateLimiter_RejectsOverLimitUntilWindowEnds(t *testing.T) {
	clock := newFakeClock()
	limiter := NewMemoryRateLimiterWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "register:10.0.0.1", 5, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "register:10.0.0.1", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	clock.Advance(15*time.Minute - time.Second)
	allowed, _ = limiter.Allow(ctx, "register:10.0.0.1", 5, 15*time.Minute)
	assert.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = limiter.Allow(ctx, "register:10.0.0.1", 5, 15*time.Minute)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryRateLimiterWithClock(newFakeClock().Now)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "login:10.0.0.1", 1, time.Minute)
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "login:10.0.0.1", 1, time.Minute)
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "login:10.0.0.2", 1, time.Minute)
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "register:10.0.0.1", 1, time.Minute)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_Remaining(t *testing.T) {
	clock := newFakeClock()
	limiter := NewMemoryRateLimiterWithClock(clock.Now)
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	for i := 0; i < 4; i++ {
		_, _ = limiter.Allow(ctx, "k", 3, time.Minute)
	}
	remaining, _ = limiter.Remaining(ctx, "k", 3, time.Minute)
	assert.Equal(t, 0, remaining)

	clock.Advance(time.Minute)
	remaining, _ = limiter.Remaining(ctx, "k", 3, time.Minute)
	assert.Equal(t, 3, remaining)
}

func TestMemoryRateLimiter_ResetAndEviction(t *testing.T) {
	clock := newFakeClock()
	limiter := NewMemoryRateLimiterWithClock(clock.Now)
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "a", 1, time.Minute)
	_, _ = limiter.Allow(ctx, "b", 1, time.Hour)

	clock.Advance(2 * time.Minute)
	_, _ = limiter.Allow(ctx, "c", 1, time.Minute)
	assert.Len(t, limiter.windows, 2, "expired window for a is evicted")

	limiter.Reset()
	assert.Empty(t, limiter.windows)

	allowed, _ := limiter.Allow(ctx, "b", 1, time.Hour)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_ConcurrentCallersShareBudget(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := limiter.Allow(ctx, "shared", 10, time.Hour)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestMemoryTokenBlacklist(t *testing.T) {
	clock := newFakeClock()
	blacklist := NewMemoryTokenBlacklist()
	blacklist.now = clock.Now
	ctx := context.Background()

	revoked, err := blacklist.Contains(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Add(ctx, "token-a", time.Minute))
	revoked, _ = blacklist.Contains(ctx, "token-a")
	assert.True(t, revoked)
	revoked, _ = blacklist.Contains(ctx, "token-b")
	assert.False(t, revoked)

	clock.Advance(time.Minute)
	revoked, _ = blacklist.Contains(ctx, "token-a")
	assert.False(t, revoked)

	require.NoError(t, blacklist.Add(ctx, "token-b", time.Minute))
	assert.Len(t, blacklist.entries, 1, "expired entries are dropped on write")
}
