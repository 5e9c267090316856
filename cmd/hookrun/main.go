// Package main provides the hookrun command-line tool, a runner for
// .pre-commit-config.yaml hook configurations.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/internal/commands"
)

// Version information set at link time
var (
	version = "dev"
	commit  = "none"
)

func main() {
	c := cli.NewCLI("hookrun", fmt.Sprintf("%s (%s)", version, commit))
	c.Args = os.Args[1:]
	c.Commands = commands.Factories()
	c.HelpFunc = commands.Usage

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitStatus)
}
