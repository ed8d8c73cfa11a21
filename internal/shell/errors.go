package shell

import (
	"errors"
	"fmt"
)

var (
	// ErrExecutionFailed is wrapped by every ExecutionError.
	ErrExecutionFailed = errors.New("shell execution failed")

	// ErrUnknownPlatform is returned when no interpreter is known for the host.
	ErrUnknownPlatform = errors.New("no shell known for platform")

	// ErrSessionUsed is returned when Run is called twice on one Session.
	ErrSessionUsed = errors.New("session already ran")
)

// ExecutionError reports a non-zero aggregate exit code. Output holds
// everything the shell printed, for diagnostics.
type ExecutionError struct {
	SessionID  string
	ExitCode   int
	Output     string
	KillReason string
}

func (e *ExecutionError) Error() string {
	if e.KillReason != "" {
		return fmt.Sprintf("shell session %s killed (%s), exit code %d", e.SessionID, e.KillReason, e.ExitCode)
	}
	return fmt.Sprintf("shell session %s exited with code %d", e.SessionID, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error {
	return ErrExecutionFailed
}
