package attrstore

import (
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hyp3rd/ewrap"
)

// MemoryStore keeps attributes in memory, keyed by cleaned path.
// Set fails when the file does not exist, like a real xattr call would.
type MemoryStore struct {
	mu    sync.RWMutex
	attrs map[string]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attrs: make(map[string]map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(path, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.attrs[filepath.Clean(path)][name]
	if !ok {
		return nil, ewrap.Wrap(ErrNotFound, "reading attribute").
			WithMetadata("path", path).
			WithMetadata("name", name)
	}

	return slices.Clone(value), nil
}

// Set implements Store.
func (s *MemoryStore) Set(path, name string, value []byte) error {
	_, err := os.Stat(path)
	if err != nil {
		return ewrap.Wrap(err, "writing attribute").
			WithMetadata("path", path).
			WithMetadata("name", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := filepath.Clean(path)
	if s.attrs[key] == nil {
		s.attrs[key] = make(map[string][]byte)
	}

	s.attrs[key][name] = slices.Clone(value)

	return nil
}

// Forget drops every attribute recorded for path.
func (s *MemoryStore) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attrs, filepath.Clean(path))
}

// Len returns the number of files with at least one attribute.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.attrs)
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ Forgetter = (*MemoryStore)(nil)
)
