package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"apartment-tracker/models"
)

// JSONStore keeps the snapshot as an indented JSON array in a single file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSONStore at path. Intermediate directories are
// created automatically.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("json store: path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("json store: create dir: %w", err)
	}
	return &JSONStore{path: path}, nil
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string { return s.path }

// Load returns the persisted snapshot. A missing file is an empty snapshot.
func (s *JSONStore) Load(_ context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json store: read %q: %w", s.path, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("json store: %w: %q: %v", ErrCorruptSnapshot, s.path, err)
	}
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	return snapshot, nil
}

// Save atomically replaces the snapshot file: the data is written to a temp
// file in the same directory, synced, then renamed over the old file.
func (s *JSONStore) Save(_ context.Context, snapshot models.Snapshot) error {
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("json store: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("json store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("json store: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("json store: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("json store: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("json store: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("json store: replace %q: %w", s.path, err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
