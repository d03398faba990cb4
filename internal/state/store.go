package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/masmgr/clearpoll/internal/polling"
)

// DefaultPath is the state file used when none is configured.
const DefaultPath = ".clearpoll-state.json"

// Store persists the RevisionState of the last build between runs.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored state, or nil if nothing was recorded yet.
func (s *Store) Load() (*polling.RevisionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state %s: %w", s.path, err)
	}

	var st polling.RevisionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", s.path, err)
	}
	return &st, nil
}

// Save replaces the stored state.
func (s *Store) Save(st *polling.RevisionState) error {
	if st == nil {
		return fmt.Errorf("save state %s: nil state", s.path)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save state %s: %w", s.path, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save state %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save state %s: %w", s.path, err)
	}
	return nil
}
