// Package argv implements the argv applet, which shows how a command line is
// tokenized in executable mode.
package argv

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/rcarmo/go-nativeshell/pkg/applets/bindopts"
	"github.com/rcarmo/go-nativeshell/pkg/argv"
	"github.com/rcarmo/go-nativeshell/pkg/binding"
	"github.com/rcarmo/go-nativeshell/pkg/core"
)

// Run executes the argv command with the given arguments.
//
// Supported flags:
//
//	-b FILE         load bindings from a YAML or JSON file (repeatable)
//	-e NAME=VALUE   bind a string value (repeatable)
//	-q              print the tokens as one shell-quoted line
//	-r              print the referenced names instead of the tokens
//
// LINE is tokenized against the flattened bindings and each resulting
// argument is printed on its own line.
func Run(stdio *core.Stdio, args []string) int {
	var binds bindopts.Options
	quote, refs := false, false
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			break
		}
		n, err := binds.Parse(args, i)
		if err != nil {
			return core.UsageError(stdio, "argv", "option requires an argument -- '"+arg[1:]+"'")
		}
		if n > 0 {
			i += n
			continue
		}
		switch arg {
		case "-q":
			quote = true
		case "-r":
			refs = true
		default:
			return core.UsageError(stdio, "argv", "invalid option -- '"+arg[1:]+"'")
		}
		i++
	}
	if len(args)-i != 1 {
		return core.UsageError(stdio, "argv", "expected exactly one LINE operand")
	}
	line := args[i]

	if refs {
		for _, name := range argv.References(line) {
			stdio.Println(name)
		}
		return core.ExitSuccess
	}

	var flat map[string]string
	if !binds.Empty() {
		bindings, err := binds.Load(nil)
		if err != nil {
			return core.Failure(stdio, "argv", err)
		}
		if flat, err = binding.Flatten(bindings); err != nil {
			return core.Failure(stdio, "argv", err)
		}
	}
	tokens, err := argv.Tokenize(line, flat)
	if err != nil {
		return core.UsageError(stdio, "argv", err.Error())
	}
	if !quote {
		for _, tok := range tokens {
			stdio.Println(tok)
		}
		return core.ExitSuccess
	}
	quoted := make([]string, len(tokens))
	for j, tok := range tokens {
		q, err := syntax.Quote(tok, syntax.LangBash)
		if err != nil {
			return core.Failure(stdio, "argv", err)
		}
		quoted[j] = q
	}
	stdio.Println(strings.Join(quoted, " "))
	return core.ExitSuccess
}
