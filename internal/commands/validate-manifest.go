package commands

import (
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/config"
)

const validateManifestUsage = "[OPTIONS] [MANIFEST...]"

// ValidateManifestCommand handles the validate-manifest command functionality
type ValidateManifestCommand struct {
	BaseCommand
}

// ValidateManifestOptions holds command-line options for the validate-manifest command
type ValidateManifestOptions struct {
	Verbose bool `short:"v" long:"verbose" description:"Report valid hooks too"`
}

// ValidateManifestCommandFactory creates a new validate-manifest command instance
func ValidateManifestCommandFactory() (cli.Command, error) {
	return &ValidateManifestCommand{}, nil
}

// Help returns the help text for the validate-manifest command
func (c *ValidateManifestCommand) Help() string {
	return commandHelp("validate-manifest", validateManifestUsage, &ValidateManifestOptions{}, &HelpFormatter{
		Description: "Validate " + config.ManifestFileName + " files published by hook repositories.",
		Examples: []Example{
			{Command: "hookrun validate-manifest", Description: "Validate " + config.ManifestFileName},
			{Command: "hookrun validate-manifest -v hooks.yaml"},
		},
		Notes: []string{
			"Each hook needs a unique id, a name, an entry and a supported language.",
		},
	})
}

// Synopsis returns a short description of the validate-manifest command
func (c *ValidateManifestCommand) Synopsis() string {
	return "Validate " + config.ManifestFileName + " files"
}

// Run executes the validate-manifest command
func (c *ValidateManifestCommand) Run(args []string) int {
	var opts ValidateManifestOptions
	files, helped, err := c.ParseArgsWithHelp(&opts, validateManifestUsage, args)
	if helped {
		return 0
	}
	if err != nil {
		return c.fail(err)
	}

	if len(files) == 0 {
		files = []string{config.ManifestFileName}
	}

	status := 0
	for _, file := range files {
		hooks, err := config.LoadManifest(file)
		if err == nil {
			err = config.ValidateManifest(hooks)
		}
		if err != nil {
			c.ui().Error(fmt.Sprintf("%s: %v", file, err))
			status = 1
			continue
		}
		if opts.Verbose {
			c.ui().Output(fmt.Sprintf("%s: %d hook(s) valid", file, len(hooks)))
		}
	}
	return status
}
