package commands

import (
	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/config"
)

// SampleConfigCommand handles the sample-config command functionality
type SampleConfigCommand struct {
	BaseCommand
}

// SampleConfigOptions holds command-line options for the sample-config command
type SampleConfigOptions struct{}

// SampleConfigCommandFactory creates a new sample-config command instance
func SampleConfigCommandFactory() (cli.Command, error) {
	return &SampleConfigCommand{}, nil
}

// Help returns the help text for the sample-config command
func (c *SampleConfigCommand) Help() string {
	return commandHelp("sample-config", OptionsUsage, &SampleConfigOptions{}, &HelpFormatter{
		Description: "Print a sample " + DefaultConfig + " (flake8, mypy, black, isort).",
		Examples: []Example{
			{Command: "hookrun sample-config > " + DefaultConfig},
		},
	})
}

// Synopsis returns a short description of the sample-config command
func (c *SampleConfigCommand) Synopsis() string {
	return "Produce a sample " + DefaultConfig + " file"
}

// Run executes the sample-config command
func (c *SampleConfigCommand) Run(args []string) int {
	var opts SampleConfigOptions
	if _, helped, err := c.ParseArgsWithHelp(&opts, OptionsUsage, args); helped {
		return 0
	} else if err != nil {
		return c.fail(err)
	}

	if _, err := c.out().Write(config.SampleConfig()); err != nil {
		return c.fail(err)
	}
	return 0
}
