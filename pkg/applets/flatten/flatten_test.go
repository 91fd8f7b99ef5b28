package flatten_test

import (
	"testing"

	"github.com/rcarmo/go-nativeshell/pkg/applets/flatten"
	"github.com/rcarmo/go-nativeshell/pkg/core"
	"github.com/rcarmo/go-nativeshell/pkg/testutil"
)

const bindingsYAML = `string: aString
integer: 42
float: 42.0
nothing: null
array: [one, two]
empty: []
map:
  key: value
  nested: [x]
`

func TestFlatten(t *testing.T) {
	files := map[string]string{"b.yaml": bindingsYAML}
	tests := []testutil.AppletTestCase{
		{Name: "no_bindings", Args: []string{}, WantCode: core.ExitSuccess},
		{Name: "assignment", Args: []string{"-e", "var=value"}, WantCode: core.ExitSuccess, WantOut: "var=value\n"},
		{
			Name:     "file",
			Args:     []string{"-b", "@b.yaml"},
			Files:    files,
			WantCode: core.ExitSuccess,
			WantOut: "array_0=one\narray_1=two\nempty_empty=\nfloat=42.0\ninteger=42\n" +
				"map_key=value\nmap_nested_0=x\nnothing=\nstring=aString\n",
		},
		{
			Name:     "selected",
			Args:     []string{"-b", "@b.yaml", "array", "map"},
			Files:    files,
			WantCode: core.ExitSuccess,
			WantOut:  "array_0=one\narray_1=two\nmap_key=value\nmap_nested_0=x\n",
		},
		{
			Name:     "override",
			Args:     []string{"-b", "@b.yaml", "-e", "string=cli", "string"},
			Files:    files,
			WantCode: core.ExitSuccess,
			WantOut:  "string=cli\n",
		},
		{Name: "nul", Args: []string{"-z", "-e", "a=1", "-e", "b=2"}, WantCode: core.ExitSuccess, WantOut: "a=1\x00b=2\x00"},
		{Name: "unknown_name", Args: []string{"-e", "a=1", "b"}, WantCode: core.ExitFailure, WantErr: "no binding named b"},
		{Name: "bad_file", Args: []string{"-b", "@bad.yaml"}, Files: map[string]string{"bad.yaml": "- not\n- a map\n"}, WantCode: core.ExitFailure, WantErr: "decode bindings"},
		{Name: "missing_file", Args: []string{"-b", "/nonexistent/b.yaml"}, WantCode: core.ExitFailure, WantErr: "no such file"},
		{Name: "invalid_option", Args: []string{"-y"}, WantCode: core.ExitUsage, WantErr: "invalid option -- 'y'"},
		{Name: "missing_argument", Args: []string{"-e"}, WantCode: core.ExitUsage, WantErr: "option requires an argument -- 'e'"},
	}
	testutil.RunAppletTests(t, flatten.Run, tests)
}
