package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOutputReader_SkipsBlankLines(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newOutputReader(strings.NewReader("first\r\n\n   \n  indented  \nlast without newline"), zap.New(core))

	require.NoError(t, r.run())

	assert.Equal(t, []string{"first", "  indented", "last without newline"}, r.lines)
	assert.Equal(t, "first\n  indented\nlast without newline\n", r.output())

	var logged []string
	for _, e := range logs.AllUntimed() {
		logged = append(logged, e.Message)
	}
	assert.Equal(t, r.lines, logged)
}

func TestOutputReader_EmptyStream(t *testing.T) {
	r := newOutputReader(strings.NewReader(""), zap.NewNop())
	require.NoError(t, r.run())
	assert.Equal(t, "", r.output())
}
