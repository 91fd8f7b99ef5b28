package argv_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rcarmo/go-nativeshell/pkg/argv"
)

func TestTokenize(t *testing.T) {
	env := map[string]string{
		"var":     "value",
		"another": "foo",
		"empty":   "",
		"spaced":  "a b",
		"array_0": "one",
		"array_1": "two",
		"map_my-key": "v",
		"var.txt": "bound",
	}
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "single", line: "hostname", want: []string{"hostname"}},
		{name: "args", line: "echo hello", want: []string{"echo", "hello"}},
		{name: "extra_space", line: "  echo \t hello  ", want: []string{"echo", "hello"}},
		{name: "quoted", line: `echo "hello; bob"`, want: []string{"echo", "hello; bob"}},
		{name: "quoted_empty", line: `echo ""`, want: []string{"echo", ""}},
		{name: "adjacent_quotes", line: `echo a"b c"d`, want: []string{"echo", "ab cd"}},
		{name: "single_quotes_literal", line: `echo 'a b'`, want: []string{"echo", "'a", "b'"}},
		{name: "backslash_literal", line: `echo a\ b`, want: []string{"echo", `a\`, "b"}},
		{
			name: "references",
			line: "echo $var ${another} $not_existing",
			want: []string{"echo", "value", "foo", "$not_existing"},
		},
		{name: "unresolved_braces", line: "echo ${missing}", want: []string{"echo", "${missing}"}},
		{name: "empty_value_dropped", line: "echo $empty", want: []string{"echo"}},
		{name: "empty_value_quoted", line: `echo "$empty"`, want: []string{"echo", ""}},
		{name: "empty_value_joined", line: "echo x${empty}y", want: []string{"echo", "xy"}},
		{name: "value_not_split", line: "echo $spaced", want: []string{"echo", "a b"}},
		{name: "inside_quotes", line: `echo "[$var]"`, want: []string{"echo", "[value]"}},
		{name: "suffix", line: "echo $var.log", want: []string{"echo", "value.log"}},
		{name: "delimited_name_first", line: "echo $var.txt", want: []string{"echo", "bound"}},
		{name: "non_name_key", line: "echo $map_my-key", want: []string{"echo", "v"}},
		{name: "non_name_key_braces", line: "echo ${map_my-key}!", want: []string{"echo", "v!"}},
		{name: "non_name_key_quoted", line: `echo "$map_my-key"x`, want: []string{"echo", "vx"}},
		{name: "ends_at_dollar", line: "echo $var$another", want: []string{"echo", "valuefoo"}},
		{name: "composite_keys", line: "echo $array_0 $array_1", want: []string{"echo", "one", "two"}},
		{name: "lone_dollar", line: "echo $ a$", want: []string{"echo", "$", "a$"}},
		{name: "unclosed_brace", line: "echo ${var", want: []string{"echo", "${var"}},
		{name: "empty_braces", line: "echo ${}", want: []string{"echo", "${}"}},
		{name: "brace_stops_at_space", line: "echo ${a b}", want: []string{"echo", "${a", "b}"}},
		{name: "brace_stops_at_quote", line: `echo "${" "}"`, want: []string{"echo", "${", "}"}},
		{name: "brace_quote_balanced", line: `echo ${a"} b"`, want: []string{"echo", "${a} b"}},
		{name: "brace_stops_at_dollar", line: "echo ${a$var}", want: []string{"echo", "${avalue}"}},
		{name: "repeated", line: "echo $var $var", want: []string{"echo", "value", "value"}},
		{name: "blank", line: "   ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := argv.Tokenize(tt.line, env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestTokenizeUnterminatedQuote(t *testing.T) {
	_, err := argv.Tokenize(`echo "abc`, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, argv.ErrUnterminatedQuote) {
		t.Fatalf("expected ErrUnterminatedQuote, got %v", err)
	}
	var perr *argv.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Offset != 5 || perr.Column != 6 {
		t.Errorf("position = offset %d column %d, want 5/6", perr.Offset, perr.Column)
	}
}

func TestTokenizeColumnCountsRunes(t *testing.T) {
	_, err := argv.Tokenize(`echo é "x`, nil)
	var perr *argv.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Offset != 8 || perr.Column != 8 {
		t.Errorf("position = offset %d column %d, want 8/8", perr.Offset, perr.Column)
	}
}

func TestReferences(t *testing.T) {
	got := argv.References(`echo $a ${b} $ "$c_1" ${} $d ${e f} ${g-h}`)
	want := []string{"a", "b", "c_1", "d", "g-h"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("References = %q, want %q", got, want)
	}
}
