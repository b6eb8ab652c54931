package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key has no live entry.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores the last successful payload of cacheable reads so they can
// be served while the network is unavailable.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage) error
}

// MemoryCache is a bounded LRU with per-entry TTL.
type MemoryCache struct {
	lru *expirable.LRU[string, json.RawMessage]
}

// NewMemoryCache keeps at most size entries, each for at most ttl (0 = no expiry).
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 128
	}
	return &MemoryCache{lru: expirable.NewLRU[string, json.RawMessage](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (json.RawMessage, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, value json.RawMessage) error {
	c.lru.Add(key, append(json.RawMessage(nil), value...))
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache stores entries as redis strings with a TTL.
type RedisCache struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache returns a cache writing its keys under prefix.
func NewRedisCache(rc *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{rc: rc, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) Get(ctx context.Context, key string) (json.RawMessage, error) {
	result, err := c.rc.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	return json.RawMessage(result), nil
}

func (c *RedisCache) Put(ctx context.Context, key string, value json.RawMessage) error {
	if err := c.rc.Set(ctx, c.key(key), []byte(value), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}
