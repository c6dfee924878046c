package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/pages-service/pkg/database"
	"github.com/redis/go-redis/v9"
)

type rateWindow struct {
	count  int
	start  time.Time
	window time.Duration
}

func (w *rateWindow) expired(now time.Time) bool {
	return !now.Before(w.start.Add(w.window))
}

// MemoryRateLimiter is a fixed-window limiter kept in process memory.
// One instance is shared by every route; keys are namespaced by scope.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

// NewMemoryRateLimiter creates an in-memory rate limiter
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return NewMemoryRateLimiterWithClock(time.Now)
}

// NewMemoryRateLimiterWithClock creates an in-memory rate limiter that reads time from now
func NewMemoryRateLimiterWithClock(now func() time.Time) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string]*rateWindow),
		now:     now,
	}
}

// Allow records a request for key and reports whether it fits in the current window
func (l *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	w, ok := l.windows[key]
	if !ok {
		w = &rateWindow{start: now, window: window}
		l.windows[key] = w
	}

	if w.count >= limit {
		return false, nil
	}

	w.count++
	return true, nil
}

// Remaining returns the number of requests left for key
func (l *MemoryRateLimiter) Remaining(_ context.Context, key string, limit int, _ time.Duration) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.expired(l.now()) {
		return limit, nil
	}

	return max(limit-w.count, 0), nil
}

// Reset forgets every window
func (l *MemoryRateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.windows)
}

func (l *MemoryRateLimiter) evict(now time.Time) {
	for key, w := range l.windows {
		if w.expired(now) {
			delete(l.windows, key)
		}
	}
}

// slidingWindowScript trims the log, checks the count and records the request
// in one step so concurrent instances cannot overshoot the limit.
// KEYS[1] log key. ARGV: now ms, window start ms, limit, member, ttl ms.
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RedisRateLimiter is a sliding-window log limiter shared by every instance using the same Redis
type RedisRateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRedisRateLimiter creates a Redis backed rate limiter
func NewRedisRateLimiter(redis *database.Redis) *RedisRateLimiter {
	return NewRedisRateLimiterWithClock(redis, time.Now)
}

// NewRedisRateLimiterWithClock creates a Redis backed rate limiter that reads time from now
func NewRedisRateLimiterWithClock(redis *database.Redis, now func() time.Time) *RedisRateLimiter {
	return &RedisRateLimiter{redis: redis, now: now}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow checks if a request is allowed based on rate limit.
// Returns true if request is allowed, false if rate limit exceeded.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	// idle keys outlive the window by a minute
	ttl := window + time.Minute

	allowed, err := slidingWindowScript.Run(ctx, r.redis.Client, []string{rateLimitKey(key)},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		uuid.NewString(),
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return allowed == 1, nil
}

// Remaining returns the number of remaining requests allowed
func (r *RedisRateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	windowStart := r.now().Add(-window).UnixMilli()

	count, err := r.redis.Client.ZCount(ctx, rateLimitKey(key), "("+strconv.FormatInt(windowStart, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	return max(limit-int(count), 0), nil
}
