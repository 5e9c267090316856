package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/git"
)

// binaryName is looked up on PATH when the running executable cannot be located
const binaryName = "hookrun"

// InstallCommand handles the install command functionality
type InstallCommand struct {
	BaseCommand
}

// InstallOptions holds command-line options for the install command
type InstallOptions struct {
	Config string `short:"c" long:"config" description:"Path to config file, relative to the repository root" default:".pre-commit-config.yaml"`
	HookTypeOptions
	Overwrite          bool `short:"f" long:"overwrite"            description:"Replace existing hooks instead of keeping them as .legacy"`
	AllowMissingConfig bool `          long:"allow-missing-config" description:"Let the hook pass when the config file is missing"`
}

// InstallCommandFactory creates a new install command instance
func InstallCommandFactory() (cli.Command, error) {
	return &InstallCommand{}, nil
}

// Help returns the help text for the install command
func (c *InstallCommand) Help() string {
	return commandHelp("install", OptionsUsage, &InstallOptions{}, &HelpFormatter{
		Description: "Install hookrun scripts into the repository's .git/hooks.",
		Examples: []Example{
			{Command: "hookrun install", Description: "Install the pre-commit hook"},
			{Command: "hookrun install -t pre-commit -t pre-push", Description: "Install several hook types"},
			{Command: "hookrun install --overwrite", Description: "Replace existing hooks"},
		},
		Notes: []string{
			"Supported hook types: " + strings.Join(supportedHookTypes, ", "),
			"An existing foreign hook is kept as <type>.legacy and still runs first.",
		},
	})
}

// Synopsis returns a short description of the install command
func (c *InstallCommand) Synopsis() string {
	return "Install hookrun into the git hooks"
}

// Run executes the install command
func (c *InstallCommand) Run(args []string) int {
	var opts InstallOptions
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

	if !opts.AllowMissingConfig {
		if _, err := os.Stat(configPath(repo.Root, opts.Config)); err != nil {
			return c.fail(fmt.Errorf("config file not found: %s (use --allow-missing-config to install anyway)", opts.Config))
		}
	}

	binary := hookrunBinary()
	for _, hookType := range opts.GetHookTypes() {
		script := hookScript(hookType, binary, opts.Config, opts.AllowMissingConfig)
		if err := repo.InstallHook(hookType, script, opts.Overwrite); err != nil {
			return c.fail(fmt.Errorf("failed to install %s hook: %w", hookType, err))
		}
		c.ui().Output(fmt.Sprintf("hookrun installed at %s", filepath.Join(".git", "hooks", hookType)))
	}
	return 0
}

// hookrunBinary returns the absolute path of the running hookrun, falling back to PATH
func hookrunBinary() string {
	if exe, err := os.Executable(); err == nil && filepath.Base(exe) == binaryName {
		return exe
	}
	if path, err := exec.LookPath(binaryName); err == nil {
		return path
	}
	return binaryName
}

func configPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// hookScript renders the script git runs for hookType. Git runs hooks from the
// top of the work tree, so relative config paths stay valid.
func hookScript(hookType, binary, configFile string, allowMissingConfig bool) string {
	missingExit := 1
	if allowMissingConfig {
		missingExit = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\n%s\n", git.HookMarker)
	fmt.Fprintf(&b, "HERE=\"$(cd \"$(dirname \"$0\")\" && pwd)\"\n")
	fmt.Fprintf(&b, "if [ -x \"$HERE/%s.legacy\" ]; then\n", hookType)
	fmt.Fprintf(&b, "    \"$HERE/%s.legacy\" \"$@\" || exit $?\n", hookType)
	fmt.Fprintf(&b, "fi\n")
	fmt.Fprintf(&b, "if [ ! -f %s ]; then\n", shellQuote(configFile))
	fmt.Fprintf(&b, "    echo %s >&2\n", shellQuote("hookrun: "+configFile+" not found, skipping hooks"))
	fmt.Fprintf(&b, "    exit %d\n", missingExit)
	fmt.Fprintf(&b, "fi\n")
	fmt.Fprintf(&b, "exec %s run --hook-stage %s -c %s\n", shellQuote(binary), hookType, shellQuote(configFile))
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
