package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestGetUsesCategoryName(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetRoot(zap.New(core))
	t.Cleanup(func() { SetRoot(nil) })

	Get(CategoryShell).Info("hello", zap.String("session", "abc"))
	Get(CategoryFinder).Debug("walking")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "shell", entries[0].LoggerName)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["session"])
	assert.Equal(t, "finder", entries[1].LoggerName)
}

func TestGetBeforeInitializeIsNoop(t *testing.T) {
	SetRoot(nil)
	assert.NotPanics(t, func() {
		Get(CategoryCache).Warn("dropped")
	})
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.log")

	logger, err := New(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	logger.Named(string(CategoryBoot)).Debug("booted", zap.Int("pid", 42))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"msg":"booted"`), line)
	assert.True(t, strings.Contains(line, `"logger":"boot"`), line)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}
