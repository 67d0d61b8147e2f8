// Package storage provides the key-value stores the complaint desk persists to.
//
// The desk only ever needs two operations:
//   - Load(key): the bytes last saved under key, or absent
//   - Save(key, bytes): replace whatever is under key
//
// Implementations:
//  1. FileStore: one file per key in a data directory (survives restarts)
//  2. MemoryStore: in-process map, for tests and throwaway sessions
//
// Sharing policy:
//   - Save replaces the whole value; there is no partial update
//   - Two sessions saving the same key overwrite each other (last writer wins)
//   - The stores guard their own bookkeeping but offer callers no lock
package storage

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/natefinch/atomic"
)

// Store is an opaque persistent key-value store.
type Store interface {
	// Load returns the value under key. ok is false when nothing was ever saved.
	Load(key string) (data []byte, ok bool, err error)

	// Save replaces the value under key.
	Save(key string, data []byte) error
}

// validKey keeps keys usable as file names on every platform.
var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStore keeps each key in its own JSON file under Dir.
//
// Writes go through a temp file and rename, so a crash mid-save leaves
// either the old or the new collection on disk, never a torn one.
type FileStore struct {
	dir string
	mu  sync.Mutex // Serializes file operations within this process
}

// NewFileStore creates a FileStore rooted at dir, creating dir if needed.
//
// Parameters:
//   - dir: Directory that holds one <key>.json file per key
//
// Returns:
//   - *FileStore: Ready-to-use store
//   - error: Directory could not be created
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads the file for key. A missing file is not an error.
func (s *FileStore) Load(key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}

// Save atomically replaces the file for key.
func (s *FileStore) Save(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// MemoryStore is a Store backed by a map.
//
// Several books opened on the same MemoryStore behave like several browser
// tabs sharing one local storage: each holds its own copy and the last one to
// save wins.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	saves  int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Load returns a copy of the value under key.
func (s *MemoryStore) Load(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Save stores a copy of data under key.
func (s *MemoryStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = bytes.Clone(data)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Open picks the store for a data directory. An empty dir gives a MemoryStore,
// which is what DEBUG_MODE sessions use.
func Open(dir string) (Store, error) {
	if dir == "" {
		log.Println("⚠️  No data directory configured. Using in-memory store; nothing will be saved.")
		return NewMemoryStore(), nil
	}

	s, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	log.Println("📋 Using data directory", dir)
	return s, nil
}
