// Package testutil provides shared testing utilities and fixtures.
package testutil

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rcarmo/go-nativeshell/pkg/core"
)

// MaxFuzzBytes bounds fuzz inputs handed to parsers and child processes.
const MaxFuzzBytes = 2048

// ClampString truncates data to at most max bytes.
func ClampString(data string, max int) string {
	if len(data) > max {
		return data[:max]
	}
	return data
}

// TempFile creates a temp file with content, returns path.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TempExecutable writes a shell script with a #!/bin/sh header and makes it
// executable. Returns its path.
func TempExecutable(t *testing.T, name, body string) string {
	t.Helper()
	RequireExecutable(t, "sh")
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// RequireExecutable skips the test when name cannot be found on PATH.
func RequireExecutable(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

// Buffer is a bytes.Buffer safe for concurrent writers.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset discards the buffered content.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// ErrClosedReader is returned by FailingReader.
var ErrClosedReader = errors.New("closed")

// FailingReader fails every read, like a source closed by its owner.
type FailingReader struct{}

func (FailingReader) Read([]byte) (int, error) { return 0, ErrClosedReader }

// CaptureStdio creates a Stdio with captured output buffers.
// An empty input leaves Stdio.In nil so children see no input at all.
func CaptureStdio(input string) (*core.Stdio, *Buffer, *Buffer) {
	out := &Buffer{}
	errBuf := &Buffer{}
	stdio := &core.Stdio{Out: out, Err: errBuf}
	if input != "" {
		stdio.In = strings.NewReader(input)
	}
	return stdio, out, errBuf
}

// CaptureStdioNoInput creates a Stdio with no input and captured output.
func CaptureStdioNoInput() (*core.Stdio, *Buffer, *Buffer) {
	return CaptureStdio("")
}

// AssertExitCode checks that the exit code matches expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("exit code = %d, want %d", got, want)
	}
}

// AssertOutput checks that stdout matches expected.
func AssertOutput(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// AssertOutputContains checks that stdout contains expected substring.
func AssertOutputContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}

// AssertNoError fails if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertErrorIs fails unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// RunApplet is a helper type for running applet tests.
type RunApplet func(stdio *core.Stdio, args []string) int

// AppletTestCase defines a parameterized test case for applets.
type AppletTestCase struct {
	Name       string                         // Test name
	Args       []string                       // Command line arguments
	Input      string                         // Stdin input
	Files      map[string]string              // Files created in a temp dir; "@name" args point at them
	Require    []string                       // Executables that must be on PATH
	WantCode   int                            // Expected exit code
	WantOut    string                         // Expected stdout (exact match)
	WantOutSub string                         // Expected stdout substring
	WantErr    string                         // Expected stderr substring
	Check      func(t *testing.T, out string) // Optional post-run check on stdout
}

// CaptureAndRun runs an applet with captured stdio and returns the output buffers.
func CaptureAndRun(t *testing.T, run RunApplet, args []string, input string) (*Buffer, *Buffer, int) {
	t.Helper()
	stdio, out, errBuf := CaptureStdio(input)
	code := run(stdio, args)
	return out, errBuf, code
}

// RunAppletTests runs a slice of parameterized applet test cases.
func RunAppletTests(t *testing.T, run RunApplet, tests []AppletTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			for _, name := range tt.Require {
				RequireExecutable(t, name)
			}
			args := tt.Args
			if len(tt.Files) > 0 {
				dir := t.TempDir()
				for name, content := range tt.Files {
					if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
						t.Fatal(err)
					}
				}
				args = make([]string, len(tt.Args))
				for i, a := range tt.Args {
					if strings.HasPrefix(a, "@") {
						a = filepath.Join(dir, a[1:])
					}
					args[i] = a
				}
			}

			out, errBuf, code := CaptureAndRun(t, run, args, tt.Input)

			AssertExitCode(t, code, tt.WantCode)
			if tt.WantOut != "" {
				AssertOutput(t, out.String(), tt.WantOut)
			}
			if tt.WantOutSub != "" {
				AssertOutputContains(t, out.String(), tt.WantOutSub)
			}
			if tt.WantErr != "" {
				AssertOutputContains(t, errBuf.String(), tt.WantErr)
			}
			if tt.Check != nil {
				tt.Check(t, out.String())
			}
		})
	}
}
