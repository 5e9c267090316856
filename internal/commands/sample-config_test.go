package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blairham/hookrun/pkg/config"
)

func TestSampleConfigCommand(t *testing.T) {
	ui := cliUI(t)
	cmd := &SampleConfigCommand{BaseCommand: BaseCommand{UI: ui, Out: ui.OutputWriter}}
	require.Equal(t, 0, cmd.Run(nil))

	out := ui.OutputWriter.String()
	assert.Equal(t, string(config.SampleConfig()), out)

	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Repos, 4)
}

func TestSampleConfigCommand_RejectsArgs(t *testing.T) {
	ui := cliUI(t)
	cmd := &SampleConfigCommand{BaseCommand: BaseCommand{UI: ui}}
	assert.Equal(t, 1, cmd.Run([]string{"--bogus"}))
	assert.Contains(t, ui.ErrorWriter.String(), "error parsing arguments")
}
