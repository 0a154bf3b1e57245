package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AtoyanMikhail/auth/internal/config"
	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every Redis failure. Callers treat it as a cache miss.
var ErrUnavailable = errors.New("cache unavailable")

// Redis calls sit on the refresh path and must fail fast.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

type redisCache struct {
	client redis.UniversalClient
	l      logger.Logger
}

// NewRedisCache connects to Redis and pings it once before returning.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, l logger.Logger) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	c := &redisCache{client: client, l: l}
	if err := c.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	l.Info("Redis connection established", logger.String("addr", cfg.Addr), logger.Int("db", cfg.DB))
	return c, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("negative ttl %s for key %s", ttl, key)
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return r.unavailable("set", key, err)
	}
	return nil
}

func (r *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, r.unavailable("exists", key, err)
	}
	return n > 0, nil
}

func (r *redisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return r.unavailable("ping", "", err)
	}
	return nil
}

func (r *redisCache) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	r.l.Info("Redis connection closed")
	return nil
}

func (r *redisCache) unavailable(op, key string, err error) error {
	r.l.Warn("Redis command failed", logger.String("op", op), logger.String("key", key), logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
