package commands

import (
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/config"
)

const validateConfigUsage = "[OPTIONS] [CONFIG...]"

// ValidateConfigCommand handles the validate-config command functionality
type ValidateConfigCommand struct {
	BaseCommand
}

// ValidateConfigOptions holds command-line options for the validate-config command
type ValidateConfigOptions struct{}

// ValidateConfigCommandFactory creates a new validate-config command instance
func ValidateConfigCommandFactory() (cli.Command, error) {
	return &ValidateConfigCommand{}, nil
}

// Help returns the help text for the validate-config command
func (c *ValidateConfigCommand) Help() string {
	return commandHelp("validate-config", validateConfigUsage, &ValidateConfigOptions{}, &HelpFormatter{
		Description: "Validate hook configuration files.",
		Examples: []Example{
			{Command: "hookrun validate-config", Description: "Validate " + DefaultConfig},
			{Command: "hookrun validate-config a.yaml b.yaml", Description: "Validate several files"},
		},
	})
}

// Synopsis returns a short description of the validate-config command
func (c *ValidateConfigCommand) Synopsis() string {
	return "Validate " + DefaultConfig + " files"
}

// Run executes the validate-config command
func (c *ValidateConfigCommand) Run(args []string) int {
	var opts ValidateConfigOptions
	files, helped, err := c.ParseArgsWithHelp(&opts, validateConfigUsage, args)
	if helped {
		return 0
	}
	if err != nil {
		return c.fail(err)
	}

	if len(files) == 0 {
		files = []string{DefaultConfig}
	}

	status := 0
	for _, file := range files {
		if err := validateConfigFile(file); err != nil {
			c.ui().Error(fmt.Sprintf("%s: %v", file, err))
			status = 1
		}
	}
	return status
}

func validateConfigFile(path string) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	return cfg.Validate()
}
