// Package logging provides categorized zap loggers for toolforge.
// Every subsystem logs through a named child of a single root logger, so a
// line can always be traced back to the shell session, finder or cache that
// produced it.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config loading
	CategoryShell  Category = "shell"  // Shell sessions, command output
	CategoryFinder Category = "finder" // File discovery and result selection
	CategoryCache  Category = "cache"  // Disk-backed key/value stores
	CategoryRecipe Category = "recipe" // Recipe resolution and expansion
)

// Options controls how the root logger is built.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	File   string // optional log file, stderr when empty
}

var (
	rootMu sync.RWMutex
	root   = zap.NewNop()
)

// Initialize builds the root logger from opts and installs it.
// Should be called once at startup, after configuration is loaded.
func Initialize(opts Options) (*zap.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	SetRoot(logger)
	return logger, nil
}

// New builds a logger without installing it.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "text":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.Development = false
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true

	if opts.File != "" {
		cfg.OutputPaths = []string{opts.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config level string to a zap level.
// An empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// SetRoot replaces the root logger. A nil logger installs a no-op logger.
func SetRoot(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rootMu.Lock()
	root = logger
	rootMu.Unlock()
}

// Root returns the current root logger.
func Root() *zap.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Get returns the logger for the given category.
// Before Initialize it returns a no-op logger.
func Get(category Category) *zap.Logger {
	return Root().Named(string(category))
}

// Sync flushes the root logger. Errors from syncing a terminal are ignored.
func Sync() {
	if err := Root().Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "[logging] Warning: sync failed: %v\n", err)
	}
}

// isIgnorableSyncError reports errors that stderr/stdout produce on sync.
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "inappropriate ioctl") ||
		strings.Contains(msg, "bad file descriptor")
}
