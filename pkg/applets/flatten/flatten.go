// Package flatten implements the flatten applet, which prints the environment
// entries a set of bindings produces.
package flatten

import (
	"fmt"

	"github.com/rcarmo/go-nativeshell/pkg/applets/bindopts"
	"github.com/rcarmo/go-nativeshell/pkg/binding"
	"github.com/rcarmo/go-nativeshell/pkg/core"
)

// Run executes the flatten command with the given arguments.
//
// Supported flags:
//
//	-b FILE         load bindings from a YAML or JSON file (repeatable)
//	-e NAME=VALUE   bind a string value (repeatable)
//	-z              end each entry with NUL instead of newline
//
// Operands restrict the output to the entries derived from the named
// bindings. Entries are printed as KEY=VALUE in lexical key order.
func Run(stdio *core.Stdio, args []string) int {
	var binds bindopts.Options
	term := "\n"
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
			return core.UsageError(stdio, "flatten", "option requires an argument -- '"+arg[1:]+"'")
		}
		if n > 0 {
			i += n
			continue
		}
		switch arg {
		case "-z":
			term = "\x00"
		default:
			return core.UsageError(stdio, "flatten", "invalid option -- '"+arg[1:]+"'")
		}
		i++
	}
	names := args[i:]

	bindings, err := binds.Load(nil)
	if err != nil {
		return core.Failure(stdio, "flatten", err)
	}
	flat, err := flattenSelected(bindings, names)
	if err != nil {
		return core.Failure(stdio, "flatten", err)
	}
	for _, k := range binding.SortedKeys(flat) {
		stdio.Print(k, "=", flat[k], term)
	}
	return core.ExitSuccess
}

// flattenSelected flattens the named bindings, or all of them when names is
// empty.
func flattenSelected(bindings map[string]any, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return binding.Flatten(bindings)
	}
	flat := make(map[string]string)
	for _, name := range names {
		raw, ok := bindings[name]
		if !ok {
			return nil, fmt.Errorf("no binding named %s", name)
		}
		v, err := binding.From(raw)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		for k, val := range binding.FlattenValue(name, v) {
			flat[k] = val
		}
	}
	return flat, nil
}
