// Package rediscache adapts a go-redis client to versioning.Cache.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNilClient is returned by every operation of a Cache built without a client.
var ErrNilClient = errors.New("redis client is nil")

// Cache stores versions as plain Redis strings.
type Cache struct {
	rc        redis.UniversalClient
	namespace string
}

// Option configures a Cache.
type Option func(*Cache)

// WithNamespace prefixes every key with ns and a colon.
func WithNamespace(ns string) Option {
	return func(c *Cache) {
		c.namespace = ns
	}
}

// New creates a Cache over rc.
func New(rc redis.UniversalClient, options ...Option) *Cache {
	c := &Cache{rc: rc}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get returns the value for key. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.rc == nil {
		return "", false, ErrNilClient
	}

	v, err := c.rc.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cache: %w", err)
	}
	return v, true, nil
}

// Set stores value under key. A ttl of zero stores it without expiry.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.rc == nil {
		return ErrNilClient
	}

	if err := c.rc.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.rc == nil {
		return ErrNilClient
	}

	if err := c.rc.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if c.rc == nil {
		return ErrNilClient
	}
	if err := c.rc.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}

func (c *Cache) key(key string) string {
	if c.namespace == "" {
		return key
	}
	return c.namespace + ":" + key
}
