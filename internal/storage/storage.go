package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// DocumentStore keeps one JSON document per key in a directory. It is the
// file-system counterpart of a browser's keyed local storage.
type DocumentStore struct {
	basePath string
}

// NewDocumentStore creates a DocumentStore and ensures the base directory exists.
func NewDocumentStore(basePath string) (*DocumentStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &DocumentStore{basePath: basePath}, nil
}

var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "-", "..", "_")

// sanitizeKey makes a key safe to use as a file name.
func sanitizeKey(key string) string {
	return keyReplacer.Replace(key)
}

func (s *DocumentStore) path(key string) string {
	return filepath.Join(s.basePath, sanitizeKey(key)+".json")
}

// Save writes v as the document for key. The file is replaced atomically so
// a crash never leaves a half-written document.
func (s *DocumentStore) Save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("failed to store document %s: %w", key, err)
	}
	return nil
}

// Load decodes the document for key into v.
func (s *DocumentStore) Load(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key. Deleting a missing key is not an error.
func (s *DocumentStore) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove document %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in their sanitized form, sorted.
func (s *DocumentStore) Keys() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}
