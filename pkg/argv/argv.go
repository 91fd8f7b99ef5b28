// Package argv splits a command line into an argument vector for direct
// execution, without a shell.
//
// The grammar is deliberately small: whitespace separates arguments, a double
// quoted span is part of a single argument, and $name or ${name} references
// are replaced from a flat environment. References to names the environment
// does not hold are kept verbatim, dollar sign and braces included. Single
// quotes and backslashes are ordinary characters.
package argv

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnterminatedQuote is matched by a ParseError for an unclosed double quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// ParseError reports a malformed command line.
type ParseError struct {
	// Offset is the byte offset of the offending character.
	Offset int
	// Column is the 1-based rune column of the offending character.
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("column %d: %s", e.Column, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Tokenize splits line into arguments, substituting references from env.
// The first argument is the command to run; resolving it to an executable is
// left to the caller.
func Tokenize(line string, env map[string]string) ([]string, error) {
	var (
		args    []string
		buf     strings.Builder
		inToken bool
		inQuote bool
		quoteAt int
	)
	flush := func() {
		if inToken {
			args = append(args, buf.String())
			buf.Reset()
			inToken = false
		}
	}

	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == '"':
			if !inQuote {
				quoteAt = i
			}
			inQuote = !inQuote
			inToken = true
			i++
		case c == '$':
			// An unquoted reference that expands to nothing does not start an
			// argument on its own.
			before := buf.Len()
			i += expandRef(&buf, line[i:], env)
			if buf.Len() > before {
				inToken = true
			}
		case !inQuote && isSpace(line, i):
			flush()
			_, size := utf8.DecodeRuneInString(line[i:])
			i += size
		default:
			buf.WriteByte(c)
			inToken = true
			i++
		}
	}
	if inQuote {
		return nil, &ParseError{
			Offset: quoteAt,
			Column: utf8.RuneCountInString(line[:quoteAt]) + 1,
			Msg:    "unterminated double quote",
			Err:    ErrUnterminatedQuote,
		}
	}
	flush()
	return args, nil
}

// expandRef writes the expansion of the reference at the start of s to buf and
// returns the number of bytes consumed. s starts with '$'.
//
// A bare reference names everything up to whitespace, a double quote, another
// '$' or the end of s. When that name is not bound, the leading run of name
// characters is tried instead, so "$var.txt" still resolves var.
func expandRef(buf *strings.Builder, s string, env map[string]string) int {
	if len(s) > 1 && s[1] == '{' {
		end := braceEnd(s)
		if end < 0 {
			buf.WriteString(s[:2])
			return 2
		}
		if val, ok := lookup(env, s[2:end]); ok {
			buf.WriteString(val)
		} else {
			buf.WriteString(s[:end+1])
		}
		return end + 1
	}
	j := bareEnd(s)
	if val, ok := lookup(env, s[1:j]); ok {
		buf.WriteString(val)
		return j
	}
	j = 1
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	if val, ok := lookup(env, s[1:j]); ok {
		buf.WriteString(val)
	} else {
		buf.WriteString(s[:j])
	}
	return j
}

// braceEnd returns the index of the '}' closing the "${" at the start of s,
// or -1 when whitespace, a quote, '$' or '{' comes first.
func braceEnd(s string) int {
	for i := 2; i < len(s); i++ {
		switch c := s[i]; {
		case c == '}':
			return i
		case isDelim(s, i) || c == '{':
			return -1
		}
	}
	return -1
}

// bareEnd returns the index just past the name of the bare reference at the
// start of s.
func bareEnd(s string) int {
	j := 1
	for j < len(s) && !isDelim(s, j) {
		j++
	}
	return j
}

func isDelim(s string, i int) bool {
	return s[i] == '"' || s[i] == '$' || isSpace(s, i)
}

func lookup(env map[string]string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	val, ok := env[name]
	return val, ok
}

// References returns the names referenced by line in order of appearance,
// including unresolvable ones. Quoting is ignored. A bare reference reports
// its leading run of name characters.
func References(line string) []string {
	var names []string
	for i := 0; i < len(line); i++ {
		if line[i] != '$' || i+1 >= len(line) {
			continue
		}
		if line[i+1] == '{' {
			if end := braceEnd(line[i:]); end > 2 {
				names = append(names, line[i+2:i+end])
				i += end
			}
			continue
		}
		j := i + 1
		for j < len(line) && isNameByte(line[j]) {
			j++
		}
		if j > i+1 {
			names = append(names, line[i+1:j])
			i = j - 1
		}
	}
	return names
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(s string, i int) bool {
	if s[i] < utf8.RuneSelf {
		return unicode.IsSpace(rune(s[i]))
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}
