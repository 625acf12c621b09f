// Package cache provides the on-disk memoization of engine outputs. Entries
// are addressed by a content hash of the full input scenario, so a duplicate
// write for the same key stores the same value and last-write-wins is
// harmless.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileCache stores one JSON document per key underneath a directory. Keys
// must already be filesystem-safe (the scenario key is a hex digest).
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir; the directory is created on
// first write
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

// Get loads the cached value for the key into v. A missing or unreadable
// entry is a miss, never an error: corrupt entries are simply recomputed.
func (c *FileCache) Get(key string, v any) (bool, error) {
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Treat a corrupt entry as a miss.
		return false, nil
	}
	return true, nil
}

// Put stores the value under the key, replacing any previous entry
func (c *FileCache) Put(key string, v any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
