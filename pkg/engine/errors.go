package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rcarmo/go-nativeshell/pkg/process"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrConfiguration covers everything rejected before a process is
	// started: unsupported bindings, malformed command lines, shell syntax
	// errors and invalid engine settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrLaunch reports a child that could not be started.
	ErrLaunch = process.ErrLaunch
	// ErrExecution reports a child that ran and failed.
	ErrExecution = errors.New("script execution failed")
	// ErrEmptyCommand reports an executable-mode script without a command.
	ErrEmptyCommand = errors.New("empty command line")
)

// ConfigError describes a problem detected before launch.
type ConfigError struct {
	// Op is the step that failed: "config", "bindings", "tokenize" or "syntax".
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// ExecutionError reports a child that exited non-zero or was stopped.
type ExecutionError struct {
	ID       string
	ExitCode int
	// Stderr is the tail of the child's standard error.
	Stderr string
	// Err is set when the child was killed because its context ended.
	Err error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit status %d", e.ExitCode)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if msg := lastLine(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExecution.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n\t ")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
