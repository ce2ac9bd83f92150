package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache is a thin Redis-backed cache used for dashboard aggregates.
type Cache struct {
	client     *redis.Client
	logger     *zap.Logger
	prefix     string
	defaultTTL time.Duration
}

// New creates a new cache with the given default TTL
func New(client *redis.Client, logger *zap.Logger, defaultTTL time.Duration) *Cache {
	return &Cache{
		client:     client,
		logger:     logger,
		prefix:     "fraudwatch:",
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key, or "" when absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set stores value under key. A zero ttl uses the default.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Del removes a cached value.
func (c *Cache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
