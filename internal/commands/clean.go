package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/cache"
)

// CleanCommand handles the clean command functionality
type CleanCommand struct {
	BaseCommand
}

// CleanOptions holds command-line options for the clean command
type CleanOptions struct {
	CacheDir string `long:"cache-dir" description:"Directory holding cloned hook repositories"`
	Verbose  bool   `short:"v" long:"verbose" description:"Verbose output showing what is being cleaned"`
}

// CleanCommandFactory creates a new clean command instance
func CleanCommandFactory() (cli.Command, error) {
	return &CleanCommand{}, nil
}

// Help returns the help text for the clean command
func (c *CleanCommand) Help() string {
	return commandHelp("clean", OptionsUsage, &CleanOptions{}, &HelpFormatter{
		Description: "Remove cloned hook repositories from the cache.",
		Examples: []Example{
			{Command: "hookrun clean", Description: "Clean the default cache"},
			{Command: "hookrun clean --cache-dir /tmp/hooks", Description: "Clean another cache"},
		},
		Notes: []string{
			"The cache is $HOOKRUN_HOME, $XDG_CACHE_HOME/hookrun or ~/.cache/hookrun.",
			"Repositories are cloned again on the next run.",
		},
	})
}

// Synopsis returns a short description of the clean command
func (c *CleanCommand) Synopsis() string {
	return "Clean cached hook repositories"
}

// Run executes the clean command
func (c *CleanCommand) Run(args []string) int {
	var opts CleanOptions
	if _, helped, err := c.ParseArgsWithHelp(&opts, OptionsUsage, args); helped {
		return 0
	} else if err != nil {
		return c.fail(err)
	}

	dir := opts.CacheDir
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir(); err != nil {
			return c.fail(err)
		}
	}

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if opts.Verbose {
			c.ui().Output(fmt.Sprintf("No cache at %s.", dir))
		}
		return 0
	}

	store, err := cache.Open(dir)
	if err != nil {
		return c.fail(fmt.Errorf("failed to open cache: %w", err))
	}
	defer store.Close() //nolint:errcheck // nothing left to flush

	if opts.Verbose {
		c.ui().Output(fmt.Sprintf("Cleaning cache directory: %s", dir))
	}
	if err := store.Clean(context.Background()); err != nil {
		return c.fail(err)
	}
	c.ui().Output(fmt.Sprintf("Cleaned %s.", dir))
	return 0
}
