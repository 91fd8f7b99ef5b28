package binding_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcarmo/go-nativeshell/pkg/binding"
	"github.com/rcarmo/go-nativeshell/pkg/testutil"
)

func TestLoadYAML(t *testing.T) {
	doc := `
string: aString
integer: 42
float: 42.0
array: [one, two]
map:
  key: value
empty: []
none: null
`
	bindings, err := binding.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flat, err := binding.Flatten(bindings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"string":      "aString",
		"integer":     "42",
		"float":       "42.0",
		"array_0":     "one",
		"array_1":     "two",
		"map_key":     "value",
		"empty_empty": "",
		"none":        "",
	}
	for k, w := range want {
		if got, ok := flat[k]; !ok || got != w {
			t.Errorf("%s = %q (present %v), want %q", k, got, ok, w)
		}
	}
	if len(flat) != len(want) {
		t.Errorf("got %d entries, want %d: %v", len(flat), len(want), flat)
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := testutil.TempFile(t, "vars.json", `{"list": ["l1"], "n": 3}`)
	bindings, err := binding.LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flat, err := binding.Flatten(bindings)
	if err != nil {
		t.Fatal(err)
	}
	if flat["list_0"] != "l1" || flat["n"] != "3" {
		t.Errorf("unexpected flat bindings %v", flat)
	}
}

func TestLoadEmptyAndInvalid(t *testing.T) {
	bindings, err := binding.Load(strings.NewReader(""))
	if err != nil || len(bindings) != 0 {
		t.Errorf("empty document = %v, %v", bindings, err)
	}
	if _, err := binding.Load(strings.NewReader("- not\n- a mapping\n")); err == nil {
		t.Error("expected error for a top-level sequence")
	}
	if _, err := binding.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := binding.ParseAssignments([]string{"a=1", "b=x=y", "a=2", "c="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a"] != "2" || got["b"] != "x=y" || got["c"] != "" {
		t.Errorf("ParseAssignments = %v", got)
	}
	for _, bad := range []string{"novalue", "=x"} {
		if _, err := binding.ParseAssignments([]string{bad}); err == nil {
			t.Errorf("ParseAssignments(%q) expected error", bad)
		}
	}
}
