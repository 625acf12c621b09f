package names

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists a name mapping as one JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store at the given file path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the mapping; a missing or unreadable file yields an empty map
func (s *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	mappings := make(map[string]string)
	if err := json.Unmarshal(data, &mappings); err != nil {
		return map[string]string{}, nil
	}
	return mappings, nil
}

// Save writes the mapping, creating parent directories as needed
func (s *FileStore) Save(mappings map[string]string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
		}
	}
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode name mappings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
