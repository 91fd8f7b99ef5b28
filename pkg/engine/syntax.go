package engine

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"
)

// logArgLimit caps how much of each argument ends up in a log record.
const logArgLimit = 200

// variantFor picks the parser dialect matching the shell binary name.
func variantFor(shell string) syntax.LangVariant {
	switch strings.TrimSuffix(filepath.Base(shell), ".exe") {
	case "sh", "dash", "ash", "posh", "yash":
		return syntax.LangPOSIX
	case "mksh", "ksh", "lksh":
		return syntax.LangMirBSDKorn
	case "bats":
		return syntax.LangBats
	default:
		return syntax.LangBash
	}
}

// checkSyntax parses script without running it.
func checkSyntax(shell, script string) error {
	parser := syntax.NewParser(syntax.Variant(variantFor(shell)))
	_, err := parser.Parse(strings.NewReader(script), "")
	return err
}

// quoteArgv renders args as a shell command line for log records.
func quoteArgv(args []string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		arg = truncateArg(arg)
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = strconv.Quote(arg)
		}
		parts[i] = q
	}
	return strings.Join(parts, " ")
}

// truncateArg cuts arg to at most logArgLimit bytes on a rune boundary.
func truncateArg(arg string) string {
	if len(arg) <= logArgLimit {
		return arg
	}
	cut := logArgLimit
	for cut > 0 && !utf8.RuneStart(arg[cut]) {
		cut--
	}
	return arg[:cut] + "..."
}
