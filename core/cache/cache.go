package cache

import (
	"context"
	"time"

	"biocard-api/core/config"
	"biocard-api/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	// IncrementRequestCount bumps the counter behind key and sets its
	// expiry on first increment. Returns the new count.
	IncrementRequestCount(ctx context.Context, key string, window time.Duration) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisCache{client: client}
}

// NewFromClient wraps an existing redis client. Tests use it with miniredis.
func NewFromClient(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) IncrementRequestCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		logger.Error("Cache:IncrementRequestCount:Error", "error", err, "key", key)
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			logger.Error("Cache:IncrementRequestCount:Expire:Error", "error", err, "key", key)
			return count, err
		}
	}
	return count, nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
