package versioning

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// FileCache is a Cache that keeps one JSON file per key on a filesystem.
// Files live under <root>/entries/<first 2 hash chars>/<hash>.json where the
// hash is derived from the key, so arbitrary keys map to safe file names.
type FileCache struct {
	root     string
	hashFunc HashFunc
	nowFunc  NowFunc
	mu       sync.RWMutex
	fs       afero.Fs
}

// FileCacheOption configures a FileCache.
type FileCacheOption func(*FileCache)

// WithFileFs sets the filesystem backing the cache.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	cache, err := versioning.OpenFileCache(".cache", versioning.WithFileFs(afero.NewMemMapFs()))
func WithFileFs(fs afero.Fs) FileCacheOption {
	return func(c *FileCache) {
		c.fs = fs
	}
}

// WithFileHashFunc sets the hash used to derive file names from keys.
// The default is xxHash64.
//
// Note: Changing the hash function orphans existing entries.
func WithFileHashFunc(hashFunc HashFunc) FileCacheOption {
	return func(c *FileCache) {
		c.hashFunc = hashFunc
	}
}

// WithFileNowFunc sets the clock used for creation stamps and expiry.
func WithFileNowFunc(nowFunc NowFunc) FileCacheOption {
	return func(c *FileCache) {
		c.nowFunc = nowFunc
	}
}

// OpenFileCache creates a file cache rooted at root.
// The directory will be created if it doesn't exist.
func OpenFileCache(root string, options ...FileCacheOption) (*FileCache, error) {
	cache := &FileCache{
		root:     root,
		fs:       afero.NewOsFs(),
		nowFunc:  time.Now,
		hashFunc: defaultHashFunc,
	}

	for _, option := range options {
		option(cache)
	}

	if err := cache.fs.MkdirAll(cache.entriesDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create entries directory: %w", err)
	}

	return cache, nil
}

// Get returns the value stored under key.
// Expired entries are removed and reported as a miss.
func (c *FileCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	keyHash := hashKey(c.hashFunc, key)

	exists, err := afero.Exists(c.fs, c.entryPath(keyHash))
	if err != nil {
		c.mu.RUnlock()
		return "", false, fmt.Errorf("failed to check entry: %w", err)
	}
	if !exists {
		c.mu.RUnlock()
		return "", false, nil
	}

	entry, err := c.loadEntry(keyHash)
	c.mu.RUnlock()
	if err != nil {
		return "", false, fmt.Errorf("failed to load entry: %w", err)
	}

	// Hash collision: the file belongs to another key.
	if entry.Key != key {
		return "", false, nil
	}

	if entry.Expired(c.nowFunc()) {
		return c.removeExpired(key, keyHash)
	}

	return entry.Value, true, nil
}

// removeExpired deletes the entry for key if it is still expired once the
// write lock is held. A fresh entry written in the meantime is returned instead.
func (c *FileCache) removeExpired(key, keyHash string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := afero.Exists(c.fs, c.entryPath(keyHash))
	if err != nil || !exists {
		return "", false, err
	}

	entry, err := c.loadEntry(keyHash)
	if err != nil {
		return "", false, fmt.Errorf("failed to load entry: %w", err)
	}
	if entry.Key != key {
		return "", false, nil
	}
	if !entry.Expired(c.nowFunc()) {
		return entry.Value, true, nil
	}

	if err := c.removeByHash(keyHash); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// Set writes value under key, replacing any previous entry.
func (c *FileCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := newCacheEntry(key, value, ttl, c.nowFunc())
	return c.saveEntry(hashKey(c.hashFunc, key), &entry)
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.removeByHash(hashKey(c.hashFunc, key))
}

// Clear removes all entries from the cache.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fs.RemoveAll(c.entriesDir()); err != nil {
		return fmt.Errorf("failed to remove entries: %w", err)
	}
	if err := c.fs.MkdirAll(c.entriesDir(), 0o755); err != nil {
		return fmt.Errorf("failed to recreate entries directory: %w", err)
	}

	return nil
}

// Root returns the cache root directory.
func (c *FileCache) Root() string {
	return c.root
}

// entriesDir returns the path to the entries directory.
func (c *FileCache) entriesDir() string {
	return filepath.Join(c.root, "entries")
}

// entryPath returns the path to the entry file for a given key hash.
func (c *FileCache) entryPath(keyHash string) string {
	if len(keyHash) < 2 {
		panic(fmt.Sprintf("key hash too short: %s", keyHash))
	}
	return filepath.Join(c.entriesDir(), keyHash[:2], keyHash+".json")
}

// removeByHash removes an entry file if it exists.
func (c *FileCache) removeByHash(keyHash string) error {
	path := c.entryPath(keyHash)
	if exists, _ := afero.Exists(c.fs, path); exists {
		if err := c.fs.Remove(path); err != nil {
			return fmt.Errorf("failed to remove entry: %w", err)
		}
	}
	return nil
}
