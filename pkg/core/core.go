// Package core provides the stream endpoints and exit conventions shared by the
// engine and the applets.
package core

import (
	"fmt"
	"io"
	"os"
)

// Exit codes following POSIX conventions
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Stdio holds the standard I/O streams handed to a child process or an applet.
// A nil In means the reader side has nothing to offer: children observe an
// immediate end of input rather than blocking.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// DefaultStdio returns Stdio configured with os.Stdin, os.Stdout, os.Stderr.
func DefaultStdio() *Stdio {
	return &Stdio{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// DiscardStdio returns Stdio with no input whose output is thrown away.
func DiscardStdio() *Stdio {
	return &Stdio{
		Out: io.Discard,
		Err: io.Discard,
	}
}

// WithInput returns a copy of s reading from in.
func (s *Stdio) WithInput(in io.Reader) *Stdio {
	c := s.normalized()
	c.In = in
	return c
}

// Normalized returns a copy of s where nil writers are replaced by io.Discard.
// A nil receiver yields DiscardStdio.
func (s *Stdio) Normalized() *Stdio {
	return s.normalized()
}

func (s *Stdio) normalized() *Stdio {
	if s == nil {
		return DiscardStdio()
	}
	c := *s
	if c.Out == nil {
		c.Out = io.Discard
	}
	if c.Err == nil {
		c.Err = io.Discard
	}
	return &c
}

// Errorf writes a formatted error message to stderr.
func (s *Stdio) Errorf(format string, args ...any) {
	fmt.Fprintf(s.Err, format, args...)
}

// Printf writes a formatted message to stdout.
func (s *Stdio) Printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Print writes a message to stdout.
func (s *Stdio) Print(args ...any) {
	fmt.Fprint(s.Out, args...)
}

// Println writes a message to stdout with a newline.
func (s *Stdio) Println(args ...any) {
	fmt.Fprintln(s.Out, args...)
}

// UsageError prints a usage error and returns ExitUsage.
func UsageError(stdio *Stdio, applet, message string) int {
	stdio.Errorf("%s: %s\n", applet, message)
	return ExitUsage
}

// Failure prints err and returns ExitFailure.
func Failure(stdio *Stdio, applet string, err error) int {
	stdio.Errorf("%s: %v\n", applet, err)
	return ExitFailure
}
