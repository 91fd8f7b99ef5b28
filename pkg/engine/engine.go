// Package engine evaluates a line of script text as an external command.
//
// In shell mode the text is handed verbatim to a shell binary ("bash -c").
// In executable mode it is tokenized and run directly, with $name and ${name}
// references substituted from the bindings. Either way the bindings are
// flattened into the child's environment, the child's streams are wired to the
// caller's Stdio, and the exit code is published back into the bindings under
// ExitValueBindingName.
//
//	eng, err := engine.New(engine.Bash())
//	code, err := eng.Evaluate(ctx, "echo $greeting", engine.Bindings{"greeting": "hi"})
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rcarmo/go-nativeshell/pkg/argv"
	"github.com/rcarmo/go-nativeshell/pkg/binding"
	"github.com/rcarmo/go-nativeshell/pkg/core"
	"github.com/rcarmo/go-nativeshell/pkg/core/timeutil"
	"github.com/rcarmo/go-nativeshell/pkg/process"
	"github.com/rcarmo/go-nativeshell/pkg/sandbox"
)

// DefaultShell is the interpreter used in shell mode when Config.Shell is empty.
const DefaultShell = "bash"

// Mode selects how script text becomes a process.
type Mode uint8

const (
	// ModeShell runs "<shell> -c <script>".
	ModeShell Mode = iota
	// ModeExecutable tokenizes the script and runs the first token.
	ModeExecutable
)

func (m Mode) String() string {
	switch m {
	case ModeShell:
		return "shell"
	case ModeExecutable:
		return "executable"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Config holds engine settings. It is copied by New; later changes to the
// value have no effect on the engine.
type Config struct {
	Mode Mode
	// Shell is the interpreter binary for ModeShell.
	Shell string
	// Args are extra shell flags placed before "-c" (for example "-e").
	Args []string
	// Stdio is used by calls that do not supply their own streams. Nil
	// provides no input and discards output.
	Stdio *core.Stdio
	// Dir is the working directory of children.
	Dir string
	// BaseEnv replaces the inherited environment when non-nil.
	BaseEnv []string
	// Policy restricts which executables may run.
	Policy *sandbox.Policy
	// Timeout kills the child when it runs longer. Zero means no limit.
	Timeout time.Duration
	// StderrLimit bounds the stderr tail kept for failure reports.
	StderrLimit int
	// Precheck parses shell-mode scripts before launching them.
	Precheck bool
	Logger   *slog.Logger
}

// Bash returns the configuration of a bash-backed engine.
func Bash() Config {
	return Config{Mode: ModeShell, Shell: DefaultShell}
}

// Executable returns the configuration of a direct-execution engine.
func Executable() Config {
	return Config{Mode: ModeExecutable}
}

// Engine evaluates scripts. It is immutable and safe for concurrent use.
type Engine struct {
	cfg      Config
	launcher *process.Launcher
	logger   *slog.Logger
}

// New validates cfg and builds an Engine.
func New(cfg Config) (*Engine, error) {
	switch cfg.Mode {
	case ModeShell:
		if cfg.Shell == "" {
			cfg.Shell = DefaultShell
		}
	case ModeExecutable:
		if len(cfg.Args) > 0 {
			return nil, &ConfigError{Op: "config", Err: errors.New("shell arguments require shell mode")}
		}
	default:
		return nil, &ConfigError{Op: "config", Err: fmt.Errorf("unknown mode %d", cfg.Mode)}
	}
	if cfg.Timeout < 0 {
		return nil, &ConfigError{Op: "config", Err: fmt.Errorf("negative timeout %v", cfg.Timeout)}
	}
	if cfg.StderrLimit < 0 {
		return nil, &ConfigError{Op: "config", Err: fmt.Errorf("negative stderr limit %d", cfg.StderrLimit)}
	}
	if cfg.Dir != "" {
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return nil, &ConfigError{Op: "config", Err: err}
		}
		if !info.IsDir() {
			return nil, &ConfigError{Op: "config", Err: fmt.Errorf("%s: not a directory", cfg.Dir)}
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	cfg.Args = append([]string(nil), cfg.Args...)
	if cfg.BaseEnv != nil {
		cfg.BaseEnv = append([]string{}, cfg.BaseEnv...)
	}
	cfg.Stdio = cfg.Stdio.Normalized()

	return &Engine{
		cfg: cfg,
		launcher: &process.Launcher{
			BaseEnv:     cfg.BaseEnv,
			Dir:         cfg.Dir,
			Policy:      cfg.Policy,
			StderrLimit: cfg.StderrLimit,
			Logger:      cfg.Logger,
		},
		logger: cfg.Logger,
	}, nil
}

// Mode reports the engine's execution mode.
func (e *Engine) Mode() Mode { return e.cfg.Mode }

// Evaluate runs script with the engine's streams. It returns the exit code.
// A non-zero exit is reported as an *ExecutionError after the code has been
// published into bindings.
func (e *Engine) Evaluate(ctx context.Context, script string, bindings Bindings) (int, error) {
	return e.EvaluateWith(ctx, script, bindings, nil)
}

// EvaluateReader reads the whole script from r and evaluates it.
func (e *Engine) EvaluateReader(ctx context.Context, r io.Reader, bindings Bindings) (int, error) {
	script, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read script: %w", err)
	}
	return e.Evaluate(ctx, string(script), bindings)
}

// EvaluateWith is Evaluate with per-call streams. A nil stdio uses the
// engine's.
func (e *Engine) EvaluateWith(ctx context.Context, script string, bindings Bindings, stdio *core.Stdio) (int, error) {
	res, err := e.Run(ctx, script, bindings, stdio)
	if err != nil {
		return res.ExitCode, err
	}
	return res.ExitCode, res.Err()
}

// Run evaluates script and reports a non-zero exit as a Failure outcome
// rather than an error. The returned error is reserved for problems that
// prevented a proper run: *ConfigError and launch errors (bindings untouched),
// and an *ExecutionError wrapping the context error when the child was
// stopped by cancellation or Config.Timeout.
func (e *Engine) Run(ctx context.Context, script string, bindings Bindings, stdio *core.Stdio) (Result, error) {
	res := Result{ID: uuid.New().String(), Outcome: Failure}
	logger := e.logger.With(slog.String("id", res.ID), slog.String("mode", e.cfg.Mode.String()))

	flat, err := binding.Flatten(bindings)
	if err != nil {
		return res, &ConfigError{Op: "bindings", Err: err}
	}
	inv, err := e.invocation(script, flat)
	if err != nil {
		logger.Debug("script rejected", slog.Any("error", err))
		return res, err
	}
	if stdio == nil {
		stdio = e.cfg.Stdio
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	logger.Debug("launching",
		slog.String("argv", quoteArgv(inv.Argv())),
		slog.Int("env", len(flat)),
		slog.String("timeout", timeutil.FormatTimeout(e.cfg.Timeout)))
	h, err := e.launcher.Launch(ctx, inv, flat, stdio)
	if err != nil {
		logger.Debug("launch failed", slog.Any("error", err))
		return res, err
	}
	pres, waitErr := h.Wait()

	res.ExitCode = pres.ExitCode
	res.Stderr = pres.Stderr
	res.StderrTruncated = pres.StderrTruncated
	res.Canceled = pres.Canceled
	res.Duration = pres.Duration
	if res.ExitCode == 0 && waitErr == nil {
		res.Outcome = Success
	}
	publish(bindings, res.ExitCode)

	logger.Debug("finished",
		slog.Int("exit", res.ExitCode),
		slog.String("outcome", res.Outcome.String()),
		slog.Duration("duration", res.Duration))
	if waitErr != nil {
		return res, &ExecutionError{ID: res.ID, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: waitErr}
	}
	return res, nil
}

func (e *Engine) invocation(script string, env map[string]string) (process.Invocation, error) {
	if e.cfg.Mode == ModeExecutable {
		args, err := argv.Tokenize(script, env)
		if err != nil {
			return process.Invocation{}, &ConfigError{Op: "tokenize", Err: err}
		}
		if len(args) == 0 {
			return process.Invocation{}, &ConfigError{Op: "tokenize", Err: ErrEmptyCommand}
		}
		return process.Direct(args), nil
	}
	if e.cfg.Precheck {
		if err := checkSyntax(e.cfg.Shell, script); err != nil {
			return process.Invocation{}, &ConfigError{Op: "syntax", Err: err}
		}
	}
	return process.Shell(e.cfg.Shell, script, e.cfg.Args...), nil
}
