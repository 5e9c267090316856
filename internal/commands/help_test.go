package commands

import (
	"strings"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
)

func TestUsage_ListsEveryCommand(t *testing.T) {
	usage := Usage(Factories())
	for name := range Factories() {
		assert.Contains(t, usage, "  "+name+" ")
	}
	assert.Less(t, strings.Index(usage, "install"), strings.Index(usage, "validate-config"))
}

func TestHelpCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{name: "overview", wantOut: "Available commands:"},
		{name: "command", args: []string{"run"}, wantOut: "--all-files"},
		{name: "unknown", args: []string{"autoupdate"}, wantCode: 1, wantErr: "Unknown command: autoupdate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := cliUI(t)
			cmd := &HelpCommand{BaseCommand: BaseCommand{UI: ui}}
			assert.Equal(t, tt.wantCode, cmd.Run(tt.args))
			assert.Contains(t, ui.OutputWriter.String(), tt.wantOut)
			assert.Contains(t, ui.ErrorWriter.String(), tt.wantErr)
		})
	}
}

func TestHelpFormatter(t *testing.T) {
	var opts struct {
		Verbose bool `short:"v" long:"verbose" description:"Talk more"`
	}
	parser := flags.NewNamedParser("hookrun demo", flags.HelpFlag)
	_, err := parser.AddGroup("Options", "", &opts)
	assert.NoError(t, err)

	help := (&HelpFormatter{
		Description: "Demo command.",
		Examples:    []Example{{Command: "hookrun demo", Description: "Run it"}, {Command: "hookrun demo -v"}},
		Notes:       []string{"Only a demo."},
	}).FormatHelp(parser)

	assert.True(t, strings.HasPrefix(help, "Demo command.\n\nExamples:\n"))
	assert.Contains(t, help, "  hookrun demo  # Run it\n")
	assert.Contains(t, help, "  hookrun demo -v\n")
	assert.Contains(t, help, "  • Only a demo.\n")
	assert.Contains(t, help, "--verbose")
}

func TestHookTypeOptions(t *testing.T) {
	var opts HookTypeOptions
	assert.Equal(t, []string{"pre-commit"}, opts.GetHookTypes())
	assert.NoError(t, opts.ValidateHookTypes())

	opts.HookTypes = []string{"pre-push", "post-merge"}
	assert.Equal(t, opts.HookTypes, opts.GetHookTypes())
	assert.NoError(t, opts.ValidateHookTypes())

	opts.HookTypes = append(opts.HookTypes, "pre-rebase")
	assert.ErrorContains(t, opts.ValidateHookTypes(), "pre-rebase")
}
