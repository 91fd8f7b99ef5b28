package binding

import (
	"sort"
	"strconv"
)

// EmptySuffix names the probe entry emitted for an empty sequence or mapping.
const EmptySuffix = "empty"

// Flatten converts bindings into flat environment entries.
//
// The first value that has no binding shape fails the whole call; the returned
// error names the binding and is an *UnsupportedValueError.
func Flatten(bindings map[string]any) (map[string]string, error) {
	values, err := Convert(bindings)
	if err != nil {
		return nil, err
	}
	return FlattenValues(values), nil
}

// Convert turns every binding into a Value. Names are visited in sorted order
// so the reported error is stable when several bindings are unsupported.
func Convert(bindings map[string]any) (map[string]Value, error) {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]Value, len(bindings))
	for _, name := range names {
		v, err := From(bindings[name])
		if err != nil {
			if uerr, ok := err.(*UnsupportedValueError); ok {
				uerr.Name = name
			}
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

// FlattenValues flattens already converted values. It never fails.
func FlattenValues(values map[string]Value) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		flattenInto(out, name, v)
	}
	return out
}

// FlattenValue flattens a single named value.
func FlattenValue(name string, v Value) map[string]string {
	out := make(map[string]string)
	flattenInto(out, name, v)
	return out
}

func flattenInto(out map[string]string, name string, v Value) {
	switch v.kind {
	case Null:
		out[name] = ""
	case Scalar:
		out[name] = v.text
	case Sequence:
		if len(v.items) == 0 {
			out[name+"_"+EmptySuffix] = ""
			return
		}
		for i, item := range v.items {
			flattenInto(out, name+"_"+strconv.Itoa(i), item)
		}
	case Mapping:
		if len(v.entries) == 0 {
			out[name+"_"+EmptySuffix] = ""
			return
		}
		for _, e := range v.entries {
			flattenInto(out, name+"_"+e.Key, e.Value)
		}
	}
}

// Environ renders flattened entries as sorted KEY=VALUE strings.
func Environ(flat map[string]string) []string {
	keys := SortedKeys(flat)
	env := make([]string, len(keys))
	for i, k := range keys {
		env[i] = k + "=" + flat[k]
	}
	return env
}

// SortedKeys returns the keys of flat in lexical order.
func SortedKeys(flat map[string]string) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
