// Package shell runs command sequences through the host's command
// interpreter.
//
// A Session spawns one interpreter (bash on Linux, zsh on macOS, cmd.exe on
// Windows), writes each command as a line to its stdin, closes stdin and
// waits for the interpreter to drain its backlog and exit. The merged
// stdout/stderr stream is read concurrently and every non-blank line is
// logged as it arrives. The exit code of a session is the interpreter's own,
// which reflects the last command only.
//
// While a session runs, SIGINT and SIGTERM kill the interpreter and its
// whole process group instead of the calling program, so an interrupted
// build leaves no orphaned compilers behind.
//
// Example usage:
//
//	res, err := shell.Run(ctx, []shell.Command{
//	    shell.Tokens(vcvarsall, "x86_amd64"),
//	    shell.Raw("cmake --build . --target install"),
//	})
//	if err != nil {
//	    return err
//	}
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"toolforge/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval bounds each wait for the interpreter to exit.
const DefaultPollInterval = 500 * time.Millisecond

// Result describes a finished session.
type Result struct {
	SessionID  string        `json:"session_id"`
	Shell      string        `json:"shell"`
	ExitCode   int           `json:"exit_code"` // -1 if the shell was killed
	Output     string        `json:"output"`    // non-blank lines, in order
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	Killed     bool          `json:"killed"`
	KillReason string        `json:"kill_reason,omitempty"`
}

// Session owns one interpreter process.
type Session struct {
	id           string
	interp       Interpreter
	dir          string
	env          []string
	pollInterval time.Duration
	logger       *zap.Logger

	mu   sync.Mutex
	used bool

	// started is called once the interpreter runs and the signal bridge is
	// installed. Tests use it to inject signals.
	started func(pid int)
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	id           string
	platform     string
	dir          string
	env          []string
	pollInterval time.Duration
	logger       *zap.Logger
}

// WithLogger overrides the shell category logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithPollInterval sets how long each wait for exit may block.
func WithPollInterval(d time.Duration) Option {
	return func(o *sessionOptions) { o.pollInterval = d }
}

// WithDir sets the interpreter's working directory.
func WithDir(dir string) Option {
	return func(o *sessionOptions) { o.dir = dir }
}

// WithEnv adds KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(o *sessionOptions) { o.env = append(o.env, env...) }
}

// WithPlatform selects the interpreter for goos instead of the host's.
func WithPlatform(goos string) Option {
	return func(o *sessionOptions) { o.platform = goos }
}

// WithSessionID sets the ID attached to every log line of the session.
func WithSessionID(id string) Option {
	return func(o *sessionOptions) { o.id = id }
}

// NewSession prepares a session for the host platform. It fails with
// ErrUnknownPlatform when no interpreter is known; nothing is spawned until
// Run.
func NewSession(opts ...Option) (*Session, error) {
	o := sessionOptions{
		platform:     runtime.GOOS,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	interp, err := LookupInterpreter(o.platform)
	if err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = logging.Get(logging.CategoryShell)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}

	return &Session{
		id:           o.id,
		interp:       interp,
		dir:          o.dir,
		env:          o.env,
		pollInterval: o.pollInterval,
		logger:       o.logger.With(zap.String("session", o.id)),
	}, nil
}

// Run creates a session and runs commands in it.
func Run(ctx context.Context, commands []Command, opts ...Option) (*Result, error) {
	s, err := NewSession(opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, commands)
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Run executes commands in order and waits for the interpreter to exit.
//
// A non-zero exit code yields both the result and an *ExecutionError
// carrying the full output. Cancelling ctx kills the interpreter's process
// group; there is no way to stop a single command.
func (s *Session) Run(ctx context.Context, commands []Command) (*Result, error) {
	s.mu.Lock()
	if s.used {
		s.mu.Unlock()
		return nil, ErrSessionUsed
	}
	s.used = true
	s.mu.Unlock()

	cmd := exec.Command(s.interp.Path, s.interp.Args...)
	cmd.Dir = s.dir
	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}
	setupProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open shell stdin: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to open shell output pipe: %w", err)
	}
	defer outR.Close()
	cmd.Stdout = outW
	cmd.Stderr = outW

	result := &Result{
		SessionID: s.id,
		Shell:     s.interp.Path,
		ExitCode:  -1,
		StartedAt: time.Now(),
	}

	if err := cmd.Start(); err != nil {
		_ = outW.Close()
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to start %s: %w", s.interp.Path, err)
	}
	// the interpreter holds the only write end from here on
	_ = outW.Close()
	s.logger.Debug("shell started", zap.String("shell", s.interp.Path), zap.Int("pid", cmd.Process.Pid))

	ks := &killSwitch{cmd: cmd, logger: s.logger}
	bridge := installSignalBridge(func(sig os.Signal) {
		ks.kill("signal " + sig.String())
	}, s.logger)
	defer bridge.restore()

	if s.started != nil {
		s.started(cmd.Process.Pid)
	}

	var g errgroup.Group
	reader := newOutputReader(outR, s.logger)
	g.Go(reader.run)

	// a long command can stop the shell from reading stdin, so writing must
	// not hold up the cancellable wait below
	g.Go(func() error {
		s.submit(stdin, commands)
		return nil
	})

	waitErr := s.wait(ctx, cmd, ks)
	readErr := g.Wait()

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	result.Output = reader.output()
	result.Killed, result.KillReason = ks.state()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return result, fmt.Errorf("failed waiting for %s: %w", s.interp.Path, waitErr)
	}
	if readErr != nil {
		s.logger.Warn("reading shell output failed", zap.Error(readErr))
	}

	s.logger.Debug("shell finished",
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Bool("killed", result.Killed))

	if result.ExitCode != 0 {
		return result, &ExecutionError{
			SessionID:  s.id,
			ExitCode:   result.ExitCode,
			Output:     result.Output,
			KillReason: result.KillReason,
		}
	}
	return result, nil
}

// submit writes every command as a line, then the platform trailer, then
// closes stdin so the interpreter exits once its backlog is done.
func (s *Session) submit(stdin io.WriteCloser, commands []Command) {
	defer func() {
		if err := stdin.Close(); err != nil {
			s.logger.Debug("closing shell stdin", zap.Error(err))
		}
	}()

	lines := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		if c.IsEmpty() {
			continue
		}
		lines = append(lines, c.String())
	}
	if s.interp.Trailer != "" {
		lines = append(lines, s.interp.Trailer)
	}

	for _, line := range lines {
		s.logger.Debug("executing command", zap.String("command", line))
		if _, err := io.WriteString(stdin, line+"\n"); err != nil {
			// the interpreter is gone; its exit status tells the rest
			s.logger.Debug("shell stopped accepting commands", zap.Error(err))
			return
		}
	}
}

// wait blocks until the interpreter exits, one poll interval at a time.
// Cancelling ctx kills the process group and keeps waiting for the exit.
func (s *Session) wait(ctx context.Context, cmd *exec.Cmd, ks *killSwitch) error {
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	done := ctx.Done()
	for {
		select {
		case err := <-waitCh:
			return err
		case <-done:
			ks.kill("context: " + ctx.Err().Error())
			done = nil
		case <-ticker.C:
			s.logger.Debug("waiting for shell", zap.Int("pid", cmd.Process.Pid))
		}
	}
}

// killSwitch kills the interpreter at most once and remembers why.
type killSwitch struct {
	cmd    *exec.Cmd
	logger *zap.Logger

	mu     sync.Mutex
	killed bool
	reason string
}

func (k *killSwitch) kill(reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.killed {
		return
	}
	k.killed = true
	k.reason = reason

	if err := killProcessGroup(k.cmd); err != nil {
		k.logger.Warn("failed to kill shell", zap.String("reason", reason), zap.Error(err))
		return
	}
	k.logger.Warn("killed shell", zap.String("reason", reason))
}

func (k *killSwitch) state() (bool, string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.killed, k.reason
}
