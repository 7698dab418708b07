package versioning

import (
	"context"
	"time"
)

// Cache is the storage capability the Service needs. Implementations adapt a
// concrete technology (process memory, files, Redis, ...) to it.
//
// Get reports ok=false for absent or expired keys. A returned error is treated
// by the Service as a miss; it never aborts version resolution.
// A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheEntry is the unit stored by the bundled cache implementations.
type CacheEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"` // zero => no TTL
}

// Expired reports whether the entry is past its expiry at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// newCacheEntry builds an entry stamped at now with the given ttl.
func newCacheEntry(key, value string, ttl time.Duration, now time.Time) CacheEntry {
	entry := CacheEntry{Key: key, Value: value, CreatedAt: now}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	return entry
}

// NopCache never stores anything. Every Get is a miss.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

// Set discards the value.
func (NopCache) Set(context.Context, string, string, time.Duration) error { return nil }

// Delete is a no-op.
func (NopCache) Delete(context.Context, string) error { return nil }
