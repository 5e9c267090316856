package commands

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/cli"
)

// UninstallCommand handles the uninstall command functionality
type UninstallCommand struct {
	BaseCommand
}

// UninstallOptions holds command-line options for the uninstall command
type UninstallOptions struct {
	HookTypeOptions
}

// UninstallCommandFactory creates a new uninstall command instance
func UninstallCommandFactory() (cli.Command, error) {
	return &UninstallCommand{}, nil
}

// Help returns the help text for the uninstall command
func (c *UninstallCommand) Help() string {
	return commandHelp("uninstall", OptionsUsage, &UninstallOptions{}, &HelpFormatter{
		Description: "Remove hookrun scripts from .git/hooks, restoring any .legacy hook.",
		Examples: []Example{
			{Command: "hookrun uninstall"},
			{Command: "hookrun uninstall -t pre-push", Description: "Remove the pre-push hook"},
		},
		Notes: []string{"Hooks not written by hookrun are left alone."},
	})
}

// Synopsis returns a short description of the uninstall command
func (c *UninstallCommand) Synopsis() string {
	return "Uninstall hookrun from the git hooks"
}

// Run executes the uninstall command
func (c *UninstallCommand) Run(args []string) int {
	var opts UninstallOptions
	if _, helped, err := c.ParseArgsWithHelp(&opts, OptionsUsage, args); helped {
		return 0
	} else if err != nil {
		return c.fail(err)
	}

	if err := opts.ValidateHookTypes(); err != nil {
		return c.fail(err)
	}

	repo, err := c.RequireGitRepository()
	if err != nil {
		return c.fail(err)
	}

	for _, hookType := range opts.GetHookTypes() {
		if !repo.HasHook(hookType) {
			continue
		}
		if err := repo.UninstallHook(hookType); err != nil {
			return c.fail(fmt.Errorf("failed to uninstall %s hook: %w", hookType, err))
		}
		c.ui().Output(fmt.Sprintf("%s uninstalled", filepath.Join(".git", "hooks", hookType)))
	}
	return 0
}
