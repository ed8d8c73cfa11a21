// Package finder locates toolchain files on disk.
//
// A Finder walks a directory tree looking for an exact file name. Directory
// names along the way can be constrained per depth, so a search rooted at
// C:\ for vcvarsall.bat can be limited to "Program Files*\*Visual Studio*\...".
// Results are memoized per target name in memory and, optionally, in a JSON
// file shared between runs. A cached result is only trusted while every path
// in it still exists.
package finder

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"toolforge/internal/diskcache"
	"toolforge/internal/logging"

	"go.uber.org/zap"
)

// DefaultRecycleMarker identifies recycle-bin directories at the top level.
const DefaultRecycleMarker = "Recycle.Bin"

// Stats counts cache and traversal activity.
type Stats struct {
	Hits          int // Cached results returned without a walk
	Misses        int // Lookups that needed a walk
	Walks         int // Directory traversals performed
	Invalidations int // Cached entries dropped because a path vanished
}

// Finder performs constrained recursive file searches.
type Finder struct {
	mu            sync.Mutex
	cache         map[string][]string
	persistPath   string
	recycleMarker string
	logger        *zap.Logger
	stats         Stats
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger overrides the finder category logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// WithPersistentCache stores results in a JSON file at path in addition to
// the in-memory cache.
func WithPersistentCache(path string) Option {
	return func(f *Finder) {
		f.persistPath = path
	}
}

// WithRecycleMarker changes the substring used to prune recycle-bin
// directories directly under the search root.
func WithRecycleMarker(marker string) Option {
	return func(f *Finder) {
		f.recycleMarker = marker
	}
}

// New creates a Finder with an empty cache.
func New(opts ...Option) *Finder {
	f := &Finder{
		cache:         make(map[string][]string),
		recycleMarker: DefaultRecycleMarker,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.Get(logging.CategoryFinder)
	}
	return f
}

// Stats returns a snapshot of the finder counters.
func (f *Finder) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// Find returns the absolute paths of all files named target below root.
//
// constraints[d] is a substring that directory names at depth d+1 below
// root must contain to be descended; deeper directories are unconstrained.
// With useCache, a previous result for target is returned as long as all of
// its paths still exist, and a fresh non-empty result is remembered.
//
// An empty result is not an error.
func (f *Finder) Find(target, root string, constraints []string, useCache bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loadPersistent()

	if useCache {
		if cached, ok := f.cache[target]; ok {
			if allFilesExist(cached) {
				f.stats.Hits++
				f.logger.Info("returning cached result",
					zap.String("target", target),
					zap.Strings("paths", cached))
				return append([]string(nil), cached...), nil
			}
			f.stats.Invalidations++
			f.logger.Debug("dropping stale cache entry",
				zap.String("target", target),
				zap.Strings("paths", cached))
			delete(f.cache, target)
		}
	}
	f.stats.Misses++

	result, err := f.walk(target, root, constraints)
	if err != nil {
		return nil, err
	}

	if useCache && len(result) > 0 {
		f.cache[target] = append([]string(nil), result...)
		f.savePersistent()
	}
	return result, nil
}

// walk performs the actual directory traversal.
func (f *Finder) walk(target, root string, constraints []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	f.stats.Walks++
	f.logger.Debug("searching",
		zap.String("target", target),
		zap.String("root", absRoot),
		zap.Strings("constraints", constraints))

	var result []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, the search goes on
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			if path == absRoot {
				return err
			}
			return nil
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if !f.descend(absRoot, path, d.Name(), constraints) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() == target {
			result = append(result, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Debug("search root does not exist", zap.String("root", absRoot))
			return nil, nil
		}
		return nil, err
	}

	f.logger.Debug("search finished",
		zap.String("target", target),
		zap.Int("matches", len(result)))
	return result, nil
}

// descend reports whether the directory at path should be traversed.
func (f *Finder) descend(root, path, name string, constraints []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	depth := len(strings.Split(rel, string(filepath.Separator)))

	if depth == 1 && f.recycleMarker != "" && strings.Contains(name, f.recycleMarker) {
		return false
	}
	if depth <= len(constraints) {
		return strings.Contains(name, constraints[depth-1])
	}
	return true
}

// loadPersistent merges the persistent cache file into memory.
func (f *Finder) loadPersistent() {
	if f.persistPath == "" {
		return
	}
	entries, err := diskcache.Load[[]string](f.persistPath)
	if err != nil {
		f.logger.Debug("ignoring unreadable finder cache",
			zap.String("path", f.persistPath),
			zap.Error(err))
		return
	}
	if len(entries) > 0 {
		f.logger.Debug("loading values from cache file",
			zap.String("path", f.persistPath),
			zap.Int("entries", len(entries)))
	}
	for k, v := range entries {
		f.cache[k] = v
	}
}

// savePersistent rewrites the persistent cache file from memory.
func (f *Finder) savePersistent() {
	if f.persistPath == "" {
		return
	}
	if err := diskcache.Save(f.persistPath, f.cache); err != nil {
		f.logger.Warn("failed to write finder cache",
			zap.String("path", f.persistPath),
			zap.Error(err))
	}
}

// allFilesExist reports whether every path names an existing regular file.
func allFilesExist(paths []string) bool {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}
