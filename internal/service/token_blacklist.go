package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prperemyshlev/pages-service/internal/utils"
	"github.com/prperemyshlev/pages-service/pkg/database"
)

// MemoryTokenBlacklist keeps revoked token hashes in process memory until they expire
type MemoryTokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenBlacklist creates an in-memory token blacklist
func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Add revokes a token for ttl
func (b *MemoryTokenBlacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for hash, expiresAt := range b.entries {
		if !now.Before(expiresAt) {
			delete(b.entries, hash)
		}
	}

	b.entries[utils.HashToken(token)] = now.Add(ttl)
	return nil
}

// Contains reports whether a token is revoked
func (b *MemoryTokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.entries[utils.HashToken(token)]
	return ok && b.now().Before(expiresAt), nil
}

// RedisTokenBlacklist handles token blacklist operations in Redis
type RedisTokenBlacklist struct {
	redis *database.Redis
}

// NewRedisTokenBlacklist creates a new Redis token blacklist
func NewRedisTokenBlacklist(redis *database.Redis) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{redis: redis}
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:token:%s", utils.HashToken(token))
}

// Add adds a token to the blacklist
func (b *RedisTokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	err := b.redis.Client.Set(ctx, blacklistKey(token), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// Contains checks if a token is in the blacklist
func (b *RedisTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	exists, err := b.redis.Client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}
