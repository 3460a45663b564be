package fds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotStore persists fetched datasets as JSON files on disk so a run
// can fall back to the previous fetch when the API is unavailable.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a snapshot store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// Save writes a snapshot, creating the directory if needed. Snapshot
// write failures are surfaced so callers can log them, but a failed save
// never fails a fetch.
func (s *SnapshotStore) Save(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

// Load reads a snapshot into dest.
func (s *SnapshotStore) Load(name string, dest interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return nil
}
