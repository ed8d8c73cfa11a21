// Package diskcache implements a small JSON-backed key/value store.
//
// A Store is a scoped resource: Open loads the backing file (a missing or
// corrupt file yields an empty map), callers read and mutate the map in
// memory, and Close rewrites the whole file exactly once. Keys are written in
// sorted order with 4-space indentation so the file diffs cleanly.
//
// Two stores sharing one file are not coordinated; the last Close wins.
package diskcache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"toolforge/internal/logging"

	"go.uber.org/zap"
)

const (
	// DefaultDirMode is used when the parent directory has to be created.
	DefaultDirMode os.FileMode = 0755

	// DefaultFileMode is applied to the committed cache file.
	DefaultFileMode os.FileMode = 0644

	indent = "    "
)

// Store is a key/value map persisted to a single JSON file.
type Store[V any] struct {
	mu     sync.Mutex
	path   string
	data   map[string]V
	logger *zap.Logger
	closed bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger overrides the cache category logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open loads the store at path. It never fails: an unreadable or corrupt
// file is logged at debug level and treated as empty.
func Open[V any](path string, opts ...Option) *Store[V] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Get(logging.CategoryCache)
	}

	s := &Store[V]{
		path:   path,
		logger: o.logger,
	}

	data, err := Load[V](path)
	if err != nil {
		s.logger.Debug("ignoring unreadable cache file", zap.String("path", path), zap.Error(err))
		data = make(map[string]V)
	} else {
		s.logger.Debug("loaded cache file", zap.String("path", path), zap.Int("entries", len(data)))
	}
	s.data = data
	return s
}

// Path returns the backing file path.
func (s *Store[V]) Path() string {
	return s.path
}

// GetOrInsert returns the value stored under key. If there is none,
// def is stored and returned.
func (s *Store[V]) GetOrInsert(key string, def V) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.data[key]; ok {
		return v
	}
	s.data[key] = def
	return def
}

// Get returns the value stored under key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes key from the store.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Keys returns the stored keys in sorted order.
func (s *Store[V]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Close writes the full map back to the backing file. Only the first call
// writes; later calls return nil.
func (s *Store[V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := Save(s.path, s.data); err != nil {
		return err
	}
	s.logger.Debug("flushed cache file", zap.String("path", s.path), zap.Int("entries", len(s.data)))
	return nil
}

// Load reads a JSON object from path. A missing file yields an empty map
// and no error.
func Load[V any](path string) (map[string]V, error) {
	data := make(map[string]V)

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse cache %s: %w", path, err)
	}
	if data == nil {
		// "null" decodes into a nil map
		data = make(map[string]V)
	}
	return data, nil
}

// Save replaces the file at path with data encoded as an indented JSON
// object with sorted keys. The write goes through a temp file and a rename
// so a crash never leaves a truncated cache behind.
func Save[V any](path string, data map[string]V) error {
	if data == nil {
		data = make(map[string]V)
	}

	// encoding/json emits map keys in sorted order; paths such as
	// "Tools & SDKs" stay readable without HTML escaping
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	encoded := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-forge-cache-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache: %w", err)
	}
	_ = os.Chmod(path, DefaultFileMode)
	return nil
}
