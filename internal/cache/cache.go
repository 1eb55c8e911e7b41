// Package cache provides a wrapper around the redis client.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const deliveredPrefix = "submission:delivered:"

// Cache is a wrapper around the redis client.
type Cache struct {
	redis *redis.Client
}

func New(addr string) *Cache {
	return &Cache{
		redis: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Get gets a value from the cache.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.redis.Get(ctx, key).Result()
}

// Set sets a value in the cache.
func (c *Cache) Set(ctx context.Context, key string, value any, expirationTime time.Duration) error {
	return c.redis.Set(ctx, key, value, expirationTime).Err()
}

// Ping pings the cache.
func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.redis.Close()
}

// Delivered reports whether the submission event id was already forwarded.
func (c *Cache) Delivered(ctx context.Context, id string) (bool, error) {
	_, err := c.Get(ctx, DeliveredKey(id))
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkDelivered records that the submission event id was forwarded. The
// marker expires after ttl.
func (c *Cache) MarkDelivered(ctx context.Context, id string, ttl time.Duration) error {
	return c.Set(ctx, DeliveredKey(id), time.Now().UTC().Format(time.RFC3339), ttl)
}

func DeliveredKey(id string) string {
	return deliveredPrefix + id
}
