// Package bindopts collects the binding options shared by the applets:
//
//	-b FILE         load bindings from a YAML or JSON file (repeatable)
//	-e NAME=VALUE   bind NAME to the string VALUE (repeatable)
//
// Files are applied in order, then assignments, so -e overrides a file.
package bindopts

import (
	"errors"
	"fmt"

	"github.com/rcarmo/go-nativeshell/pkg/binding"
	"github.com/rcarmo/go-nativeshell/pkg/core/fs"
	"github.com/rcarmo/go-nativeshell/pkg/sandbox"
)

// ErrMissingValue reports a binding option given as the last argument.
var ErrMissingValue = errors.New("option requires an argument")

// Options accumulates binding sources in command-line order.
type Options struct {
	files   []string
	assigns []string
}

// Parse consumes the binding option at args[i] and returns how many
// arguments it used. It returns 0 when args[i] is not a binding option.
func (o *Options) Parse(args []string, i int) (int, error) {
	switch args[i] {
	case "-b", "-e":
	default:
		return 0, nil
	}
	if i+1 >= len(args) {
		return 0, ErrMissingValue
	}
	if args[i] == "-b" {
		o.files = append(o.files, args[i+1])
	} else {
		o.assigns = append(o.assigns, args[i+1])
	}
	return 2, nil
}

// Empty reports whether no binding option was seen.
func (o *Options) Empty() bool {
	return len(o.files) == 0 && len(o.assigns) == 0
}

// Load reads every file and assignment into one bindings map. Files are
// opened through policy; nil allows every path.
func (o *Options) Load(policy *sandbox.Policy) (map[string]any, error) {
	out := map[string]any{}
	for _, path := range o.files {
		loaded, err := loadFile(policy, path)
		if err != nil {
			return nil, err
		}
		binding.Merge(out, loaded)
	}
	assigned, err := binding.ParseAssignments(o.assigns)
	if err != nil {
		return nil, err
	}
	binding.Merge(out, assigned)
	return out, nil
}

func loadFile(policy *sandbox.Policy, path string) (map[string]any, error) {
	f, err := fs.Open(policy, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	loaded, err := binding.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loaded, nil
}
