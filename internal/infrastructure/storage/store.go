package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// KV is origin-scoped durable key-value storage. Channel logs and the
// remembered chat identity are the only producers.
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
}

// FileStore persists each key as a gzip-compressed file under a root
// directory, with an in-memory cache in front. sync.Map carries its own
// synchronization; the write path is additionally serialized per store.
type FileStore struct {
	root  string
	cache sync.Map
	mu    sync.Mutex
}

// NewFileStore creates the storage root and returns a file-backed store.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Set writes a value durably and updates the cache.
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(value); err != nil {
		return fmt.Errorf("failed to compress value for %s: %w", key, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression for %s: %w", key, err)
	}

	path := s.keyPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}

	cached := make([]byte, len(value))
	copy(cached, value)
	s.cache.Store(key, cached)
	return nil
}

// Get returns the value for a key, preferring the cache.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if cached, ok := s.cache.Load(key); ok {
		return cached.([]byte), true, nil
	}

	data, err := os.ReadFile(s.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer zr.Close()

	value, err := io.ReadAll(zr)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress %s: %w", key, err)
	}

	s.cache.Store(key, value)
	return value, true, nil
}

// Delete removes a key from disk and cache. Missing keys are not errors.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(key)
	if err := os.Remove(s.keyPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// keyPath maps a key to a filesystem path. Keys may contain separators
// (chatlog:general), which are not valid in file names everywhere.
func (s *FileStore) keyPath(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(s.root, safe+".kv")
}

// MemStore is an in-memory KV for tests.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached := make([]byte, len(value))
	copy(cached, value)
	s.data[key] = cached
	return nil
}

func (s *MemStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
