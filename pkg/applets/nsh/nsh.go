// Package nsh implements the nsh applet: evaluate a script through the engine
// with bindings taken from files and assignments.
package nsh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/rcarmo/go-nativeshell/pkg/applets/bindopts"
	"github.com/rcarmo/go-nativeshell/pkg/core"
	"github.com/rcarmo/go-nativeshell/pkg/core/fs"
	"github.com/rcarmo/go-nativeshell/pkg/core/timeutil"
	"github.com/rcarmo/go-nativeshell/pkg/engine"
	"github.com/rcarmo/go-nativeshell/pkg/sandbox"
)

// ShellEnv names the environment variable that overrides the default shell.
const ShellEnv = "NATIVESHELL_SHELL"

const usage = "usage: nsh [-x] [-n] [-v] [-s SHELL] [-a ARG]... [-b FILE]... [-e NAME=VALUE]... [-C DIR] [-P PATH]... [-t DURATION] (-c SCRIPT | FILE | -)"

type options struct {
	cfg     engine.Config
	binds   bindopts.Options
	script  string
	inline  bool
	source  string
	allowed []string
	timeout time.Duration
	verbose bool
}

// Run executes the nsh command with the given arguments.
//
// Supported flags:
//
//	-x            executable mode: tokenize and run without a shell
//	-n            parse the script with a shell grammar before running it
//	-v            log evaluation steps to stderr
//	-s SHELL      shell binary (default $NATIVESHELL_SHELL or bash)
//	-a ARG        extra shell flag placed before -c (repeatable)
//	-b FILE       load bindings from a YAML or JSON file (repeatable)
//	-e NAME=VALUE bind a string value (repeatable)
//	-C DIR        working directory of the child
//	-P PATH       only run executables and read files under PATH (repeatable);
//	              the current directory stays readable
//	-t DURATION   kill the child after DURATION (30, 1.5m, 1m30s)
//	-c SCRIPT     evaluate SCRIPT instead of reading a file
//
// With FILE or -c the child inherits standard input. With - or no operand the
// script itself is read from standard input, which must not be a terminal.
// The exit code is the script's; launch failures exit 1 and usage or
// configuration errors exit 2.
func Run(stdio *core.Stdio, args []string) int {
	opts, code, ok := parseArgs(stdio, args)
	if !ok {
		return code
	}

	policy, err := opts.policy()
	if err != nil {
		return core.UsageError(stdio, "nsh", err.Error())
	}
	script, childIn, err := opts.load(stdio, policy)
	if err != nil {
		return core.UsageError(stdio, "nsh", err.Error())
	}
	bindings, err := opts.binds.Load(policy)
	if err != nil {
		return core.UsageError(stdio, "nsh", err.Error())
	}

	cfg := opts.cfg
	cfg.Timeout = opts.timeout
	cfg.Policy = policy
	cfg.Stdio = &core.Stdio{In: childIn, Out: stdio.Out, Err: stdio.Err}
	if opts.verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(stdio.Err, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return core.UsageError(stdio, "nsh", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err = eng.Evaluate(ctx, script, bindings)
	return exitCode(stdio, err)
}

func parseArgs(stdio *core.Stdio, args []string) (*options, int, bool) {
	opts := &options{cfg: engine.Bash()}
	if shell := os.Getenv(ShellEnv); shell != "" {
		opts.cfg.Shell = shell
	}
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			break
		}
		n, err := opts.binds.Parse(args, i)
		if err != nil {
			return nil, core.UsageError(stdio, "nsh", "option requires an argument -- '"+arg[1:]+"'"), false
		}
		if n > 0 {
			i += n
			continue
		}
		switch arg {
		case "-x":
			opts.cfg.Mode = engine.ModeExecutable
		case "-n":
			opts.cfg.Precheck = true
		case "-v":
			opts.verbose = true
		case "-s", "-a", "-C", "-P", "-t", "-c":
			if i+1 >= len(args) {
				return nil, core.UsageError(stdio, "nsh", "option requires an argument -- '"+arg[1:]+"'"), false
			}
			val := args[i+1]
			switch arg {
			case "-s":
				opts.cfg.Shell = val
			case "-a":
				opts.cfg.Args = append(opts.cfg.Args, val)
			case "-C":
				opts.cfg.Dir = val
			case "-P":
				opts.allowed = append(opts.allowed, val)
			case "-t":
				d, err := timeutil.ParseTimeout(val)
				if err != nil {
					return nil, core.UsageError(stdio, "nsh", err.Error()), false
				}
				opts.timeout = d
			case "-c":
				opts.script = val
				opts.inline = true
			}
			i++
		case "-h", "--help":
			stdio.Println(usage)
			return nil, core.ExitSuccess, false
		default:
			return nil, core.UsageError(stdio, "nsh", "invalid option -- '"+strings.TrimPrefix(arg, "-")+"'"), false
		}
		i++
	}
	rest := args[i:]
	switch {
	case opts.inline && len(rest) > 0:
		return nil, core.UsageError(stdio, "nsh", "unexpected operand "+rest[0]), false
	case len(rest) > 1:
		return nil, core.UsageError(stdio, "nsh", "too many operands"), false
	case len(rest) == 1:
		opts.source = rest[0]
	}
	if opts.cfg.Mode == engine.ModeExecutable && len(opts.cfg.Args) > 0 {
		return nil, core.UsageError(stdio, "nsh", "-a requires shell mode"), false
	}
	return opts, 0, true
}

// policy builds the sandbox for -P, or nil when no path was given.
func (o *options) policy() (*sandbox.Policy, error) {
	if len(o.allowed) == 0 {
		return nil, nil
	}
	rules := make([]sandbox.PathRule, len(o.allowed))
	for i, path := range o.allowed {
		rules[i] = sandbox.PathRule{Path: path, Permission: sandbox.PermRead | sandbox.PermExec}
	}
	return sandbox.New(sandbox.Config{AllowedPaths: rules, AllowCwd: true})
}

// load returns the script text and the reader the child should inherit.
func (o *options) load(stdio *core.Stdio, policy *sandbox.Policy) (string, io.Reader, error) {
	if o.inline {
		return o.script, stdio.In, nil
	}
	if o.source != "" && o.source != "-" {
		data, err := fs.ReadFile(policy, o.source)
		if err != nil {
			return "", nil, err
		}
		return string(data), stdio.In, nil
	}
	if stdio.In == nil {
		return "", nil, nil
	}
	if o.source == "" && isTerminal(stdio.In) {
		return "", nil, errors.New("no script given and standard input is a terminal")
	}
	data, err := io.ReadAll(stdio.In)
	if err != nil {
		return "", nil, err
	}
	return string(data), nil, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func exitCode(stdio *core.Stdio, err error) int {
	if err == nil {
		return core.ExitSuccess
	}
	var execErr *engine.ExecutionError
	switch {
	case errors.As(err, &execErr):
		// The child already reported its own failure on stderr.
		if execErr.Err != nil {
			stdio.Errorf("nsh: %v\n", execErr.Err)
		}
		if execErr.ExitCode == 0 {
			return core.ExitFailure
		}
		return execErr.ExitCode
	case errors.Is(err, engine.ErrConfiguration):
		return core.UsageError(stdio, "nsh", err.Error())
	default:
		return core.Failure(stdio, "nsh", err)
	}
}
