// Package process starts child processes wired to caller-supplied streams and
// reports how they ended.
//
// A Launcher resolves the executable, builds the child environment from the
// inherited one plus flattened bindings, and connects the three standard
// streams. Output is forwarded by dedicated goroutines while the child runs so
// a chatty child never blocks on a full pipe. Handle.Wait returns only after
// both output streams reached end of file and the process exited.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rcarmo/go-nativeshell/pkg/binding"
	"github.com/rcarmo/go-nativeshell/pkg/core"
	"github.com/rcarmo/go-nativeshell/pkg/sandbox"
)

// DefaultStderrLimit bounds the stderr tail kept for failure reports.
const DefaultStderrLimit = 64 << 10

var (
	// ErrLaunch is matched by every error that prevented a child from starting.
	ErrLaunch = errors.New("launch failed")
	// ErrEmptyCommand reports an invocation without an executable.
	ErrEmptyCommand = errors.New("empty command")
	// ErrCanceled is returned by Wait when the child was killed because its
	// context ended.
	ErrCanceled = errors.New("process canceled")
)

// LaunchError reports a child that could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("launch: %v", e.Err)
	}
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLaunch.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// Invocation names the program to run and its arguments, excluding argv[0].
type Invocation struct {
	Path string
	Args []string
}

// Shell builds "<shell> [flags...] -c <script>".
func Shell(shell, script string, flags ...string) Invocation {
	args := make([]string, 0, len(flags)+2)
	args = append(args, flags...)
	return Invocation{Path: shell, Args: append(args, "-c", script)}
}

// Direct builds an invocation from a tokenized command line.
func Direct(argv []string) Invocation {
	if len(argv) == 0 {
		return Invocation{}
	}
	return Invocation{Path: argv[0], Args: append([]string(nil), argv[1:]...)}
}

// Argv returns the full argument vector, program first.
func (i Invocation) Argv() []string {
	return append([]string{i.Path}, i.Args...)
}

// Launcher starts child processes. The zero value inherits the current
// environment and working directory, allows every executable and logs nothing.
// A Launcher is safe for concurrent use.
type Launcher struct {
	// BaseEnv is the environment children inherit. Nil means os.Environ();
	// an empty non-nil slice starts children with only the flattened entries.
	BaseEnv []string
	// Dir is the working directory of children; empty means the current one.
	Dir string
	// Policy restricts executables and working directories. Nil allows all.
	Policy *sandbox.Policy
	// StderrLimit bounds the captured stderr tail; zero means DefaultStderrLimit.
	StderrLimit int
	Logger      *slog.Logger
}

// Result describes a finished child.
type Result struct {
	Pid      int
	ExitCode int
	// Stderr is the tail of what the child wrote to standard error.
	Stderr string
	// StderrTruncated is set when earlier stderr output was dropped.
	StderrTruncated bool
	Canceled        bool
	// WriteErr is the first error returned by a caller-supplied writer. The
	// child's remaining output was discarded after it.
	WriteErr error
	Duration time.Duration
}

// Handle is a running child.
type Handle struct {
	cmd      *exec.Cmd
	ctx      context.Context
	logger   *slog.Logger
	forward  errgroup.Group
	stderr   *tailBuffer
	started  time.Time
	done     chan struct{}
	canceled atomic.Bool

	waitOnce sync.Once
	result   Result
	err      error
}

// Launch starts inv with env added to the base environment and the standard
// streams connected to stdio. A nil stdio discards output and provides no
// input. Failure to start returns a *LaunchError and no handle.
//
// When ctx ends before the child exits, the child (and on unix its whole
// process group) is killed.
func (l *Launcher) Launch(ctx context.Context, inv Invocation, env map[string]string, stdio *core.Stdio) (*Handle, error) {
	if inv.Path == "" {
		return nil, &LaunchError{Err: ErrEmptyCommand}
	}
	logger := l.logger()

	path, err := l.resolve(inv.Path)
	if err != nil {
		return nil, &LaunchError{Path: inv.Path, Err: err}
	}
	if err := l.Policy.CheckExec(path); err != nil {
		return nil, &LaunchError{Path: inv.Path, Err: err}
	}
	if l.Dir != "" {
		if err := l.Policy.CheckDir(l.Dir); err != nil {
			return nil, &LaunchError{Path: inv.Path, Err: err}
		}
	}

	stdio = stdio.Normalized()
	out, errw := stdio.Out, stdio.Err
	if sameWriter(out, errw) {
		lw := &lockedWriter{w: out}
		out, errw = lw, lw
	}

	cmd := exec.Command(path, inv.Args...) // #nosec G204 -- running caller-supplied commands is the point
	cmd.Args[0] = inv.Path
	cmd.Dir = l.Dir
	cmd.Env = l.environ(env)
	setProcAttr(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Path: inv.Path, Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Path: inv.Path, Err: err}
	}
	var stdinPipe io.WriteCloser
	if stdio.In != nil {
		if stdinPipe, err = cmd.StdinPipe(); err != nil {
			return nil, &LaunchError{Path: inv.Path, Err: err}
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: inv.Path, Err: err}
	}

	limit := l.StderrLimit
	if limit <= 0 {
		limit = DefaultStderrLimit
	}
	h := &Handle{
		cmd:     cmd,
		ctx:     ctx,
		logger:  logger,
		stderr:  newTailBuffer(limit),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	logger.Debug("process started",
		slog.Int("pid", cmd.Process.Pid),
		slog.String("path", path),
		slog.Int("args", len(inv.Args)))

	h.forward.Go(func() error { return forward(out, stdoutPipe, io.Discard) })
	h.forward.Go(func() error {
		return forward(io.MultiWriter(h.stderr, errw), stderrPipe, h.stderr)
	})
	if stdinPipe != nil {
		// The pump is not awaited: a reader that blocks forever must not keep
		// Wait from returning once the child is gone.
		go h.pump(stdinPipe, stdio.In)
	}
	go h.watch()
	return h, nil
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// resolve finds the executable for name on PATH, or relative to Dir when
// name contains a path separator.
func (l *Launcher) resolve(name string) (string, error) {
	if l.Dir != "" && strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) {
		name = filepath.Join(l.Dir, name)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

func (l *Launcher) environ(env map[string]string) []string {
	base := l.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	// exec.Cmd keeps the last value of duplicated keys, so bindings override
	// inherited variables of the same name.
	out := make([]string, 0, len(base)+len(env))
	out = append(out, base...)
	return append(out, binding.Environ(env)...)
}

// Pid returns the process id of the child.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Kill terminates the child (and on unix its process group).
func (h *Handle) Kill() error {
	select {
	case <-h.done:
		return os.ErrProcessDone
	default:
	}
	return killProcess(h.cmd)
}

// Wait blocks until both output streams are drained and the child exited.
// A non-zero exit is not an error: it is reported in Result.ExitCode. Wait
// returns an error wrapping ErrCanceled and the context error when the child
// was killed because its context ended. Wait may be called more than once.
func (h *Handle) Wait() (Result, error) {
	h.waitOnce.Do(func() {
		h.result, h.err = h.wait()
	})
	return h.result, h.err
}

func (h *Handle) wait() (Result, error) {
	writeErr := h.forward.Wait()
	waitErr := h.cmd.Wait()
	close(h.done)

	res := Result{
		Pid:             h.cmd.Process.Pid,
		Stderr:          h.stderr.String(),
		StderrTruncated: h.stderr.Truncated(),
		WriteErr:        writeErr,
		Duration:        time.Since(h.started),
		Canceled:        h.canceled.Load(),
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, fmt.Errorf("wait for pid %d: %w", res.Pid, waitErr)
		}
		res.ExitCode = exitCode(exitErr)
	}
	h.logger.Debug("process exited",
		slog.Int("pid", res.Pid),
		slog.Int("exit", res.ExitCode),
		slog.Duration("duration", res.Duration),
		slog.Bool("canceled", res.Canceled))
	if writeErr != nil {
		h.logger.Debug("output writer failed", slog.Int("pid", res.Pid), slog.Any("error", writeErr))
	}
	if res.Canceled {
		return res, fmt.Errorf("%w: %w", ErrCanceled, context.Cause(h.ctx))
	}
	return res, nil
}

// watch kills the child when the launch context ends first.
func (h *Handle) watch() {
	select {
	case <-h.ctx.Done():
		h.canceled.Store(true)
		if err := killProcess(h.cmd); err != nil {
			h.logger.Debug("kill failed", slog.Int("pid", h.cmd.Process.Pid), slog.Any("error", err))
		}
	case <-h.done:
	}
}

// pump copies the caller's input into the child's stdin and closes it. A
// failing source ends the input early; the child decides what that means.
func (h *Handle) pump(w io.WriteCloser, r io.Reader) {
	if _, err := io.Copy(w, r); err != nil {
		h.logger.Debug("stdin forwarding stopped", slog.Int("pid", h.cmd.Process.Pid), slog.Any("error", err))
	}
	_ = w.Close()
}
