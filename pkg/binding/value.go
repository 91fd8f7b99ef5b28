// Package binding converts caller-supplied variables into the flat string
// key space a child process sees in its environment.
//
// Host values are first converted into a [Value], a tagged variant with four
// shapes: null, scalar, sequence and mapping. Flattening then dispatches on the
// tag:
//
//	name = "x"                  ->  name=x
//	name = nil                  ->  name=
//	name = []any{"a", nil}      ->  name_0=a  name_1=
//	name = map[string]any{"k":1} -> name_k=1
//	name = []any{} or map{}     ->  name_empty=
//
// Composites nest: the element prefix becomes the name of the inner value, so
// name = [][]int{{1}} yields name_0_0=1.
package binding

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	Null Kind = iota
	Scalar
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ErrUnsupportedValue is matched by errors for values that have no binding shape.
var ErrUnsupportedValue = errors.New("unsupported binding value")

// UnsupportedValueError reports a binding whose value cannot be flattened.
type UnsupportedValueError struct {
	// Name is the binding name, empty when the value was converted on its own.
	Name string
	// Path locates the offending element inside a composite, e.g. "[2].key".
	Path string
	// Type is the Go type that was rejected.
	Type string
}

func (e *UnsupportedValueError) Error() string {
	where := e.Name + e.Path
	if where == "" {
		return fmt.Sprintf("unsupported binding value of type %s", e.Type)
	}
	return fmt.Sprintf("binding %q: unsupported value of type %s", where, e.Type)
}

// Is reports whether target is ErrUnsupportedValue.
func (e *UnsupportedValueError) Is(target error) bool {
	return target == ErrUnsupportedValue
}

// Entry is one key of a mapping Value.
type Entry struct {
	Key   string
	Value Value
}

// Value is a binding value in one of the four supported shapes.
// The zero Value is Null.
type Value struct {
	kind    Kind
	text    string
	items   []Value
	entries []Entry
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// ScalarValue returns a scalar holding s.
func ScalarValue(s string) Value { return Value{kind: Scalar, text: s} }

// SequenceValue returns an ordered sequence of items.
func SequenceValue(items ...Value) Value {
	return Value{kind: Sequence, items: items}
}

// MappingValue returns a mapping with entries in the given order.
func MappingValue(entries ...Entry) Value {
	return Value{kind: Mapping, entries: entries}
}

// Kind returns the shape of v.
func (v Value) Kind() Kind { return v.kind }

// Text returns the scalar text, or "" for any other shape.
func (v Value) Text() string { return v.text }

// Items returns the elements of a sequence.
func (v Value) Items() []Value { return v.items }

// Entries returns the entries of a mapping.
func (v Value) Entries() []Entry { return v.entries }

// Len returns the number of elements of a composite, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Sequence:
		return len(v.items)
	case Mapping:
		return len(v.entries)
	}
	return 0
}

// From converts a host Go value into a Value.
//
// Scalars are strings, booleans, integers, floats, byte slices, fmt.Stringer
// and error values. Slices and arrays become sequences. Maps keyed by strings,
// integers or booleans become mappings with keys sorted. Pointers and
// interfaces are followed; nil at any level is Null.
func From(v any) (Value, error) {
	return from(v, "")
}

func from(v any, path string) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return x, nil
	case string:
		return ScalarValue(x), nil
	case bool:
		return ScalarValue(strconv.FormatBool(x)), nil
	case int:
		return ScalarValue(strconv.Itoa(x)), nil
	case int64:
		return ScalarValue(strconv.FormatInt(x, 10)), nil
	case float64:
		return ScalarValue(FormatFloat(x, 64)), nil
	case float32:
		return ScalarValue(FormatFloat(float64(x), 32)), nil
	case []byte:
		return ScalarValue(string(x)), nil
	case []any:
		items := make([]Value, 0, len(x))
		for i, item := range x {
			iv, err := from(item, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return Value{}, err
			}
			items = append(items, iv)
		}
		return SequenceValue(items...), nil
	case []string:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = ScalarValue(item)
		}
		return SequenceValue(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			ev, err := from(x[k], path+"."+k)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Value: ev})
		}
		return MappingValue(entries...), nil
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			entries[i] = Entry{Key: k, Value: ScalarValue(x[k])}
		}
		return MappingValue(entries...), nil
	case fmt.Stringer:
		if isNilPointer(x) {
			return NullValue(), nil
		}
		return ScalarValue(x.String()), nil
	case error:
		if isNilPointer(x) {
			return NullValue(), nil
		}
		return ScalarValue(x.Error()), nil
	}
	return fromReflect(reflect.ValueOf(v), path)
}

func fromReflect(rv reflect.Value, path string) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NullValue(), nil
		}
		return from(rv.Elem().Interface(), path)
	case reflect.String:
		return ScalarValue(rv.String()), nil
	case reflect.Bool:
		return ScalarValue(strconv.FormatBool(rv.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ScalarValue(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ScalarValue(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32:
		return ScalarValue(FormatFloat(rv.Float(), 32)), nil
	case reflect.Float64:
		return ScalarValue(FormatFloat(rv.Float(), 64)), nil
	case reflect.Slice:
		if rv.IsNil() {
			return SequenceValue(), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return ScalarValue(string(rv.Bytes())), nil
		}
		return sequenceFromReflect(rv, path)
	case reflect.Array:
		return sequenceFromReflect(rv, path)
	case reflect.Map:
		return mappingFromReflect(rv, path)
	}
	return Value{}, &UnsupportedValueError{Path: path, Type: rv.Type().String()}
}

func sequenceFromReflect(rv reflect.Value, path string) (Value, error) {
	items := make([]Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		iv, err := from(rv.Index(i).Interface(), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return Value{}, err
		}
		items = append(items, iv)
	}
	return SequenceValue(items...), nil
}

func mappingFromReflect(rv reflect.Value, path string) (Value, error) {
	type keyed struct {
		key string
		val reflect.Value
	}
	pairs := make([]keyed, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, ok := mapKey(iter.Key())
		if !ok {
			return Value{}, &UnsupportedValueError{Path: path, Type: rv.Type().String()}
		}
		pairs = append(pairs, keyed{key: key, val: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	entries := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		ev, err := from(p.val.Interface(), path+"."+p.key)
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, Entry{Key: p.key, Value: ev})
	}
	return MappingValue(entries...), nil
}

func mapKey(k reflect.Value) (string, bool) {
	switch k.Kind() {
	case reflect.Interface:
		if k.IsNil() {
			return "", false
		}
		return mapKey(k.Elem())
	case reflect.String:
		return k.String(), true
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), true
	}
	return "", false
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// FormatFloat renders f the way the scripting host prints floating point
// numbers: integral values keep a trailing ".0" (42.0), others use the
// shortest representation that round-trips.
func FormatFloat(f float64, bitSize int) string {
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
