//go:build !windows

package recipe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"toolforge/internal/shell"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecute_AppliesDirAndEnv(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	plan := &Plan{
		Dir: dir,
		Env: []string{"FORGE_GREETING=hello"},
		Commands: []shell.Command{
			shell.Raw("echo $FORGE_GREETING"),
			shell.Raw("pwd -P"),
		},
	}

	res, err := Execute(context.Background(), plan,
		shell.WithLogger(zap.NewNop()),
		shell.WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n"+dir+"\n", res.Output)
}

func TestExecute_Failure(t *testing.T) {
	plan := &Plan{Commands: []shell.Command{shell.Raw("echo before"), shell.Raw("exit 4")}}

	res, err := Execute(context.Background(), plan, shell.WithLogger(zap.NewNop()))
	var execErr *shell.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 4, execErr.ExitCode)
	assert.Equal(t, "before\n", execErr.Output)
	assert.Equal(t, 4, res.ExitCode)
}
