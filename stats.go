package versioning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FileCacheStats represents file cache statistics.
type FileCacheStats struct {
	Entries     int           // Total number of entry files
	Expired     int           // Entries past their expiry that have not been pruned yet
	TotalSize   int64         // Total size of all entry files in bytes
	OldestEntry time.Duration // Age of the oldest entry
	NewestEntry time.Duration // Age of the newest entry
}

// FileCacheEntry describes one stored entry for iteration.
type FileCacheEntry struct {
	KeyHash   string
	Key       string
	CreatedAt time.Time
	ExpiresAt time.Time
	Size      int64
}

// Stats returns statistics about the cache.
func (c *FileCache) Stats() (FileCacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := FileCacheStats{}
	var oldest, newest time.Time
	now := c.nowFunc()

	err := c.walkEntries(func(keyHash string, size int64, e *CacheEntry) error {
		stats.Entries++
		stats.TotalSize += size
		if e.Expired(now) {
			stats.Expired++
		}

		if oldest.IsZero() || e.CreatedAt.Before(oldest) {
			oldest = e.CreatedAt
		}
		if newest.IsZero() || e.CreatedAt.After(newest) {
			newest = e.CreatedAt
		}
		return nil
	})
	if err != nil {
		return FileCacheStats{}, err
	}

	if !oldest.IsZero() {
		stats.OldestEntry = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestEntry = now.Sub(newest)
	}

	return stats, nil
}

// Prune removes expired entries.
// Returns the number of entries removed.
func (c *FileCache) Prune() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	var toRemove []string

	err := c.walkEntries(func(keyHash string, _ int64, e *CacheEntry) error {
		if e.Expired(now) {
			toRemove = append(toRemove, keyHash)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, keyHash := range toRemove {
		if err := c.removeByHash(keyHash); err != nil {
			return count, fmt.Errorf("failed to remove entry %s: %w", keyHash, err)
		}
		count++
	}

	return count, nil
}

// Entries returns every stored entry, expired ones included.
func (c *FileCache) Entries() ([]FileCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var entries []FileCacheEntry

	err := c.walkEntries(func(keyHash string, size int64, e *CacheEntry) error {
		entries = append(entries, FileCacheEntry{
			KeyHash:   keyHash,
			Key:       e.Key,
			CreatedAt: e.CreatedAt,
			ExpiresAt: e.ExpiresAt,
			Size:      size,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// walkEntries walks all entry files and calls fn for each readable one.
func (c *FileCache) walkEntries(fn func(keyHash string, size int64, e *CacheEntry) error) error {
	return afero.Walk(c.fs, c.entriesDir(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if !strings.HasSuffix(path, ".json") {
			return nil
		}

		keyHash := strings.TrimSuffix(filepath.Base(path), ".json")
		if len(keyHash) < 2 {
			return nil
		}

		e, err := c.loadEntry(keyHash)
		if err != nil {
			// Skip corrupted entries
			return nil
		}

		return fn(keyHash, info.Size(), e)
	})
}
