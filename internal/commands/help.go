package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mitchellh/cli"
)

const helpUsage = "[COMMAND]"

// HelpCommand handles the help command functionality
type HelpCommand struct {
	BaseCommand
	// Commands is the table help describes; Factories() when nil
	Commands map[string]cli.CommandFactory
}

// HelpOptions holds command-line options for the help command
type HelpOptions struct{}

// Factories returns the command table of the hookrun binary
func Factories() map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"clean":             CleanCommandFactory,
		"help":              HelpCommandFactory,
		"install":           InstallCommandFactory,
		"run":               RunCommandFactory,
		"sample-config":     SampleConfigCommandFactory,
		"uninstall":         UninstallCommandFactory,
		"validate-config":   ValidateConfigCommandFactory,
		"validate-manifest": ValidateManifestCommandFactory,
	}
}

// HelpCommandFactory creates a new help command instance
func HelpCommandFactory() (cli.Command, error) {
	return &HelpCommand{}, nil
}

// Help returns the help text for the help command
func (c *HelpCommand) Help() string {
	return commandHelp("help", helpUsage, &HelpOptions{}, &HelpFormatter{
		Description: "Show help for a command, or list every command.",
		Examples: []Example{
			{Command: "hookrun help"},
			{Command: "hookrun help run", Description: "Show the run options"},
		},
	})
}

// Synopsis returns a short description of the help command
func (c *HelpCommand) Synopsis() string {
	return "Show help for a specific command"
}

// Run executes the help command
func (c *HelpCommand) Run(args []string) int {
	var opts HelpOptions
	remaining, helped, err := c.ParseArgsWithHelp(&opts, helpUsage, args)
	if helped {
		return 0
	}
	if err != nil {
		return c.fail(err)
	}

	commands := c.Commands
	if commands == nil {
		commands = Factories()
	}

	if len(remaining) == 0 {
		c.ui().Output(Usage(commands))
		return 0
	}

	factory, ok := commands[remaining[0]]
	if !ok {
		c.ui().Error(fmt.Sprintf("Unknown command: %s\n", remaining[0]))
		c.ui().Output(Usage(commands))
		return 1
	}

	command, err := factory()
	if err != nil {
		return c.fail(err)
	}
	c.ui().Output(command.Help())
	return 0
}

// Usage lists the commands with their synopses
func Usage(commands map[string]cli.CommandFactory) string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("Usage: hookrun [--version] [--help] <command> [<args>]\n\n")
	b.WriteString("Available commands:\n")
	for _, name := range names {
		synopsis := ""
		if command, err := commands[name](); err == nil {
			synopsis = command.Synopsis()
		}
		fmt.Fprintf(&b, "  %-18s %s\n", name, synopsis)
	}
	return b.String()
}
