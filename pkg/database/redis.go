package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisDialTimeout = 5 * time.Second

// RedisOptions selects the Redis server shared by the limiter, the token
// blacklist and the notification queue
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// PoolSize of zero keeps the go-redis default
	PoolSize    int
	DialTimeout time.Duration
}

// Redis wraps the go-redis client together with the options it was built from
type Redis struct {
	Client *redis.Client
	opts   RedisOptions
}

// NewRedis connects to Redis and fails fast when the server does not answer PING
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = defaultRedisDialTimeout
	}

	r := &Redis{
		Client: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			PoolSize:    opts.PoolSize,
			DialTimeout: opts.DialTimeout,
		}),
		opts: opts,
	}

	if err := r.Ping(ctx); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return r, nil
}

// Options returns the connection settings, used to open the job queue on the same server
func (r *Redis) Options() RedisOptions {
	return r.opts
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
