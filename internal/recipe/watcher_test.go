package recipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startWatcher(t *testing.T, path string) (*Watcher, <-chan struct{}, context.CancelFunc, <-chan error) {
	t.Helper()

	w, err := NewWatcher(path, WithDebounce(50*time.Millisecond), WithWatchLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	changes := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changes <- struct{}{} })
	}()
	return w, changes, cancel, done
}

func TestWatcher_ReportsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []\n"), 0644))

	w, changes, cancel, done := startWatcher(t, path)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("steps:\n  - run: echo\n"), 0644))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))
	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Changes, 1)
	assert.GreaterOrEqual(t, stats.Events, stats.Changes)
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []\n"), 0644))

	w, changes, cancel, done := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))

	select {
	case <-changes:
		t.Fatal("change reported for another file")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	<-done
	assert.Equal(t, 0, w.Stats().Events)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "recipe.yaml"), WithWatchLogger(zap.NewNop()))
	assert.Error(t, err)
}
