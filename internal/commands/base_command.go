package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/git"
)

// BaseCommand provides common functionality for all commands
type BaseCommand struct {
	// UI receives messages; a BasicUi on stdout/stderr when nil
	UI cli.Ui
	// Out receives hook result lines; stdout when nil
	Out io.Writer
	// Dir is the directory the command acts on; the working directory when empty
	Dir string
}

// ui returns the command's UI, defaulting to the process streams
func (bc *BaseCommand) ui() cli.Ui {
	if bc.UI == nil {
		bc.UI = &cli.BasicUi{Writer: os.Stdout, ErrorWriter: os.Stderr}
	}
	return bc.UI
}

func (bc *BaseCommand) out() io.Writer {
	if bc.Out == nil {
		return os.Stdout
	}
	return bc.Out
}

// RequireGitRepository ensures we're in a git repository and returns it
func (bc *BaseCommand) RequireGitRepository() (*git.Repository, error) {
	repo, err := git.NewRepository(bc.Dir)
	if err != nil {
		return nil, fmt.Errorf("not in a git repository: %w", err)
	}
	return repo, nil
}

// ParseArgsWithHelp parses arguments into opts. helped is true when --help
// was requested and the help text has already been written.
func (bc *BaseCommand) ParseArgsWithHelp(opts any, usage string, args []string) (remaining []string, helped bool, err error) {
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = usage

	remaining, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			bc.ui().Output(flagsErr.Message)
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("error parsing arguments: %w", err)
	}

	return remaining, false, nil
}

// fail reports err and returns the failure exit code
func (bc *BaseCommand) fail(err error) int {
	bc.ui().Error("Error: " + err.Error())
	return 1
}

// HookTypeOptions provides common hook type functionality
type HookTypeOptions struct {
	HookTypes []string `short:"t" long:"hook-type" description:"Hook type to (un)install, repeatable (default: pre-commit)"`
}

// GetHookTypes returns the requested hook types, pre-commit when none were given
func (hto *HookTypeOptions) GetHookTypes() []string {
	if len(hto.HookTypes) == 0 {
		return []string{hookTypePreCommit}
	}
	return hto.HookTypes
}

// ValidateHookTypes validates that all specified hook types are supported
func (hto *HookTypeOptions) ValidateHookTypes() error {
	for _, hookType := range hto.HookTypes {
		if !slices.Contains(supportedHookTypes, hookType) {
			return fmt.Errorf("unsupported hook type %q (supported: %s)", hookType, strings.Join(supportedHookTypes, ", "))
		}
	}
	return nil
}
