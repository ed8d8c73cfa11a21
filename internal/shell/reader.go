package shell

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// outputReader drains the merged stdout/stderr stream of one session.
// lines must only be read after run has returned.
type outputReader struct {
	src    io.Reader
	logger *zap.Logger
	lines  []string
}

func newOutputReader(src io.Reader, logger *zap.Logger) *outputReader {
	return &outputReader{src: src, logger: logger}
}

// run reads until end of stream. Blank lines are dropped; every other line
// is kept without its trailing whitespace and logged as it arrives.
func (r *outputReader) run() error {
	br := bufio.NewReader(r.src)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			r.consume(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

func (r *outputReader) consume(line string) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if strings.TrimSpace(line) == "" {
		return
	}
	r.lines = append(r.lines, line)
	r.logger.Info(line)
}

// output returns the collected lines, each terminated by a newline.
func (r *outputReader) output() string {
	if len(r.lines) == 0 {
		return ""
	}
	return strings.Join(r.lines, "\n") + "\n"
}
