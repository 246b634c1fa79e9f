package github

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores successful GET response bodies keyed by base URL plus request
// path, so that repeated runs within the TTL do not spend API quota.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

type cachedBody struct {
	body     []byte
	storedAt time.Time
}

// MemoryCache is an in-process Cache with TTL expiration.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cachedBody
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache with the specified TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cachedBody),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached body for key unless it is missing or expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.entries[key]; ok {
		if c.now().Sub(cached.storedAt) < c.ttl {
			return cached.body, true, nil
		}
	}
	return nil, false, nil
}

// Set stores body under key.
func (c *MemoryCache) Set(_ context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedBody{body: body, storedAt: c.now()}
	return nil
}

const redisKeyPrefix = "ecoregistry:github:"

// RedisCache shares cached responses between processes and runs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a Redis-backed response cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached body, treating a missing key as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Set stores body with the cache TTL. Uses SET with expiry so entries age out
// without a sweeper.
func (c *RedisCache) Set(ctx context.Context, key string, body []byte) error {
	return c.client.Set(ctx, redisKeyPrefix+key, body, c.ttl).Err()
}
