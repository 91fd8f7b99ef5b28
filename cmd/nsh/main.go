// Command nsh is a standalone entry point for the nsh applet.
package main

import (
	"os"

	"github.com/rcarmo/go-nativeshell/pkg/applets/nsh"
	"github.com/rcarmo/go-nativeshell/pkg/core"
)

func main() {
	stdio := core.DefaultStdio()
	os.Exit(nsh.Run(stdio, os.Args[1:]))
}
