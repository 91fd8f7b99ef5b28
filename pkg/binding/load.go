package binding

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load decodes a YAML document whose top level is a mapping into bindings.
// JSON input is accepted as well since it is a subset of YAML. An empty
// document yields empty bindings.
func Load(r io.Reader) (map[string]any, error) {
	var doc map[string]any
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("decode bindings: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// LoadFile reads bindings from a YAML or JSON file.
func LoadFile(path string) (map[string]any, error) {
	f, err := os.Open(path) // #nosec G304 -- bindings file is chosen by the caller
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bindings, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bindings, nil
}

// ParseAssignments parses NAME=VALUE pairs into string bindings. A later
// assignment to the same name wins.
func ParseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: want NAME=VALUE", pair)
		}
		out[name] = value
	}
	return out, nil
}

// Merge copies every binding of src into dst, replacing existing names.
func Merge(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
