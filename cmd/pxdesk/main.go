// Package main is the entry point for the pxdesk CLI.
//
// pxdesk is the operator tooling around the container request portal
// core: it can probe the cluster connection and re-run address
// discovery for a provisioned container.
//
// For detailed usage information, run:
//
//	pxdesk --help
package main

import (
	"fmt"
	"os"

	"github.com/pxdesk/pxdesk/cmd/pxdesk/commands"
)

// Version information set by the release build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
