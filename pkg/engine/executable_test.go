package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rcarmo/go-nativeshell/pkg/argv"
	"github.com/rcarmo/go-nativeshell/pkg/engine"
	"github.com/rcarmo/go-nativeshell/pkg/testutil"
)

func executableEngine(t *testing.T, input string) (*engine.Engine, *testutil.Buffer, *testutil.Buffer) {
	t.Helper()
	stdio, out, errBuf := testutil.CaptureStdio(input)
	cfg := engine.Executable()
	cfg.Stdio = stdio
	return newEngine(t, cfg), out, errBuf
}

func TestExecutableEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		bindings engine.Bindings
		input    string
		require  string
		want     string
	}{
		{name: "echo", script: "echo hello", want: "hello\n"},
		{name: "quoted", script: `echo "hello; bob"`, want: "hello; bob\n"},
		{
			name:     "references",
			script:   "echo $var ${another} $not_existing",
			bindings: engine.Bindings{"var": "value", "another": "foo"},
			want:     "value foo $not_existing\n",
		},
		{
			name:     "null",
			script:   "echo $var",
			bindings: engine.Bindings{"var": nil},
			want:     "\n",
		},
		{
			name:     "numbers",
			script:   "echo $int ${float}",
			bindings: engine.Bindings{"int": 42, "float": 42.0},
			want:     "42 42.0\n",
		},
		{
			name:   "composites",
			script: "echo $array_0 $array_1 $list_0 $map_key $long_array_10",
			bindings: engine.Bindings{
				"array":      []string{"one", "two"},
				"list":       []any{"l1"},
				"map":        map[string]any{"key": "value"},
				"long_array": strings.Split("a a a a a a a a a a b", " "),
			},
			want: "one two l1 value b\n",
		},
		{
			name:     "non_name_key",
			script:   "echo $map_my-key",
			bindings: engine.Bindings{"map": map[string]any{"my-key": "v"}},
			want:     "v\n",
		},
		{
			name:     "no_resplit",
			script:   "printf [%s] $spaced",
			bindings: engine.Bindings{"spaced": "a b"},
			require:  "printf",
			want:     "[a b]",
		},
		{
			name:     "environment",
			script:   "printenv var",
			bindings: engine.Bindings{"var": "foo"},
			require:  "printenv",
			want:     "foo\n",
		},
		{name: "input", script: "head -n 1", input: "hello\n", require: "head", want: "hello\n"},
		{name: "no_input", script: "cat", require: "cat", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.RequireExecutable(t, "echo")
			if tt.require != "" {
				testutil.RequireExecutable(t, tt.require)
			}
			eng, out, _ := executableEngine(t, tt.input)
			code, err := eng.Evaluate(context.Background(), tt.script, tt.bindings)
			testutil.AssertNoError(t, err)
			testutil.AssertExitCode(t, code, 0)
			testutil.AssertOutput(t, out.String(), tt.want)
		})
	}
}

func TestExecutableHostname(t *testing.T) {
	testutil.RequireExecutable(t, "hostname")
	eng, out, errBuf := executableEngine(t, "")
	code, err := eng.Evaluate(context.Background(), "hostname", nil)
	testutil.AssertNoError(t, err)
	testutil.AssertExitCode(t, code, 0)
	if out.String() == "" {
		t.Error("expected a host name")
	}
	testutil.AssertOutput(t, errBuf.String(), "")
}

func TestExecutableFailure(t *testing.T) {
	testutil.RequireExecutable(t, "false")
	eng, _, _ := executableEngine(t, "")
	vars := map[string]any{}
	bindings := engine.Bindings{engine.VariablesBindingName: vars}
	code, err := eng.Evaluate(context.Background(), "false", bindings)
	testutil.AssertErrorIs(t, err, engine.ErrExecution)
	testutil.AssertExitCode(t, code, 1)
	if bindings[engine.ExitValueBindingName] != 1 || vars[engine.ExitValueBindingName] != 1 {
		t.Errorf("published %v / %v, want 1", bindings[engine.ExitValueBindingName], vars[engine.ExitValueBindingName])
	}
}

func TestExecutableErrors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		targets []error
	}{
		{name: "unknown_command", script: "blawhhhhhh", targets: []error{engine.ErrLaunch}},
		{name: "unterminated_quote", script: `echo "open`, targets: []error{engine.ErrConfiguration, argv.ErrUnterminatedQuote}},
		{name: "empty", script: "  \n", targets: []error{engine.ErrConfiguration, engine.ErrEmptyCommand}},
		{name: "unresolved_command", script: "$nothing", targets: []error{engine.ErrLaunch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, _, _ := executableEngine(t, "")
			bindings := engine.Bindings{}
			_, err := eng.Evaluate(context.Background(), tt.script, bindings)
			for _, target := range tt.targets {
				testutil.AssertErrorIs(t, err, target)
			}
			if _, ok := bindings[engine.ExitValueBindingName]; ok {
				t.Error("exit value published without a process")
			}
		})
	}
}

func TestExecutableFailingInput(t *testing.T) {
	testutil.RequireExecutable(t, "cat")
	eng, out, _ := executableEngine(t, "")
	stdio, _, _ := testutil.CaptureStdioNoInput()
	stdio.Out = out
	stdio.In = testutil.FailingReader{}
	code, err := eng.EvaluateWith(context.Background(), "cat", nil, stdio)
	testutil.AssertNoError(t, err)
	testutil.AssertExitCode(t, code, 0)
	testutil.AssertOutput(t, out.String(), "")
}
