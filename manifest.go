package versioning

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// saveEntry writes an entry file for keyHash.
func (c *FileCache) saveEntry(keyHash string, entry *CacheEntry) error {
	path := c.entryPath(keyHash)
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create entry directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	// Write to a sibling temp file and rename, so readers never see a partial entry.
	tmp := path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("failed to commit entry: %w", err)
	}

	return nil
}

// loadEntry reads the entry file for keyHash.
func (c *FileCache) loadEntry(keyHash string) (*CacheEntry, error) {
	data, err := afero.ReadFile(c.fs, c.entryPath(keyHash))
	if err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	return &entry, nil
}
