package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lethang507/crmdev/internal/fsops"
)

// Store provides an interface for persisting the latest build manifest.
type Store interface {
	// Load loads the most recent manifest.
	// Returns os.ErrNotExist if no build has been recorded.
	Load() (*BuildManifest, error)

	// Save saves the manifest atomically, replacing any previous one.
	Save(m *BuildManifest) error

	// Delete removes the recorded manifest. Deleting a missing manifest is
	// not an error.
	Delete() error

	// Path returns where the manifest is persisted.
	Path() string
}

// FileStore implements Store using a JSON file on disk.
type FileStore struct {
	fs   fsops.FS
	path string
}

// NewFileStore creates a FileStore persisting to the given path.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{
		fs:   fs,
		path: path,
	}
}

// Load loads the most recent manifest.
func (s *FileStore) Load() (*BuildManifest, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read build manifest: %w", err)
	}

	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal build manifest: %w", err)
	}

	return &m, nil
}

// Save saves the manifest atomically.
func (s *FileStore) Save(m *BuildManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal build manifest: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write build manifest: %w", err)
	}

	return nil
}

// Delete removes the recorded manifest.
func (s *FileStore) Delete() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete build manifest: %w", err)
	}

	return nil
}

// Path returns where the manifest is persisted.
func (s *FileStore) Path() string {
	return s.path
}

// MemStore is an in-memory Store for testing.
type MemStore struct {
	manifest *BuildManifest
	err      error
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// SetError makes every subsequent operation fail with err.
func (s *MemStore) SetError(err error) {
	s.err = err
}

// Load returns the stored manifest, or os.ErrNotExist if none was saved.
func (s *MemStore) Load() (*BuildManifest, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.manifest == nil {
		return nil, os.ErrNotExist
	}
	return s.manifest, nil
}

// Save stores the manifest in memory.
func (s *MemStore) Save(m *BuildManifest) error {
	if s.err != nil {
		return s.err
	}
	s.manifest = m
	return nil
}

// Delete clears the stored manifest.
func (s *MemStore) Delete() error {
	if s.err != nil {
		return s.err
	}
	s.manifest = nil
	return nil
}

// Path returns a placeholder path.
func (s *MemStore) Path() string {
	return "mem://build.json"
}
