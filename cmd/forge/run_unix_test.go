//go:build !windows

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmd_PassesExitCodeThrough(t *testing.T) {
	forgeEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yaml")
	doc := `
name: failing
steps:
  - run: echo before
  - run: exit 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := executeCommand(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, 3, exitCode(err))
}

func TestRunCmd_DirRelativeToRecipe(t *testing.T) {
	forgeEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
	path := filepath.Join(dir, "recipe.yaml")
	doc := `
name: touch
dir: out
steps:
  - run: touch marker
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := executeCommand(t, "run", path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "marker"))
}

func TestRunCmd_FailureReportsOutput(t *testing.T) {
	forgeEnv(t)
	t.Setenv("FORGE_LOG_LEVEL", "warn")
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	doc := `
name: failing
steps:
  - run: echo compiler-error-details
  - run: exit 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := executeCommand(t, "run", path)
	require.Error(t, err)

	var stderr bytes.Buffer
	reportError(&stderr, err)
	assert.Contains(t, stderr.String(), "compiler-error-details\n")
	assert.Contains(t, stderr.String(), "exited with code 2")
	assert.Equal(t, 2, exitCode(err))
}
