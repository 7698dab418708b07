package versioning

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCacheSize is the number of entries a MemoryCache holds by default.
const DefaultMemoryCacheSize = 128

// MemoryCache is an in-process Cache with per-entry expiry.
// It is bounded: once full, the least recently used entry is evicted.
// It is safe for concurrent use.
type MemoryCache struct {
	entries *lru.Cache[string, CacheEntry]
	nowFunc NowFunc
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	size    int
	nowFunc NowFunc
}

// WithMemorySize sets the maximum number of entries.
func WithMemorySize(size int) MemoryOption {
	return func(c *memoryConfig) {
		c.size = size
	}
}

// WithMemoryNowFunc sets the clock used for expiry decisions.
func WithMemoryNowFunc(nowFunc NowFunc) MemoryOption {
	return func(c *memoryConfig) {
		c.nowFunc = nowFunc
	}
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(options ...MemoryOption) (*MemoryCache, error) {
	cfg := memoryConfig{size: DefaultMemoryCacheSize, nowFunc: time.Now}
	for _, option := range options {
		option(&cfg)
	}

	entries, err := lru.New[string, CacheEntry](cfg.size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &MemoryCache{entries: entries, nowFunc: cfg.nowFunc}, nil
}

// Get returns the value for key unless it is absent or expired.
// Expired entries are removed on read.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	if entry.Expired(c.nowFunc()) {
		c.entries.Remove(key)
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set stores value under key. A ttl of zero keeps the entry until evicted.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.entries.Add(key, newCacheEntry(key, value, ttl, c.nowFunc()))
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len returns the number of stored entries, including ones that expired but were not read since.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Purge removes every entry.
func (c *MemoryCache) Purge() {
	c.entries.Purge()
}
