// Command nativeshell is a multi-call binary bundling the nsh, flatten and
// argv applets. Invoke it as "nativeshell <applet> ..." or through a symlink
// named after the applet.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rcarmo/go-nativeshell/pkg/applets/argv"
	"github.com/rcarmo/go-nativeshell/pkg/applets/flatten"
	"github.com/rcarmo/go-nativeshell/pkg/applets/nsh"
	"github.com/rcarmo/go-nativeshell/pkg/core"
)

type appletFunc func(stdio *core.Stdio, args []string) int

var applets = map[string]appletFunc{
	"nsh":     nsh.Run,
	"flatten": flatten.Run,
	"argv":    argv.Run,
}

func main() {
	stdio := core.DefaultStdio()

	applet, args := resolveApplet(os.Args)
	if applet == "" {
		printAppletList(stdio)
		os.Exit(core.ExitUsage)
	}

	run, ok := applets[applet]
	if !ok {
		stdio.Errorf("nativeshell: applet not found: %s\n", applet)
		printAppletList(stdio)
		os.Exit(core.ExitUsage)
	}

	// Applets expect args without the applet name.
	os.Exit(run(stdio, args))
}

func resolveApplet(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}

	name := strings.TrimSuffix(filepath.Base(args[0]), ".exe")
	// If invoked as "nativeshell applet ..."
	if name == "nativeshell" {
		if len(args) < 2 {
			return "", nil
		}
		return args[1], args[2:]
	}

	// If invoked as a symlink named after the applet
	return name, args[1:]
}

func printAppletList(stdio *core.Stdio) {
	names := make([]string, 0, len(applets))
	for name := range applets {
		names = append(names, name)
	}
	sort.Strings(names)
	stdio.Println("Currently defined functions:")
	stdio.Println(" " + strings.Join(names, " "))
}
