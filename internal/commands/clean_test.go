package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blairham/hookrun/pkg/cache"
)

func TestCleanCommand_Help(t *testing.T) {
	assert.Contains(t, (&CleanCommand{}).Help(), "--cache-dir")
	assert.Equal(t, "Clean cached hook repositories", (&CleanCommand{}).Synopsis())
}

func TestCleanCommand_RemovesClones(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := cache.Open(dir)
	require.NoError(t, err)
	clone, err := store.NewRepoDir()
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(clone, ".git"), 0o750))
	require.NoError(t, store.Record(context.Background(), "https://github.com/psf/black", "22.3.0", clone))
	require.NoError(t, store.Close())

	ui := cliUI(t)
	cmd := &CleanCommand{BaseCommand: BaseCommand{UI: ui}}
	require.Equal(t, 0, cmd.Run([]string{"--cache-dir", dir}), ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), "Cleaned "+dir+".")
	assert.NoDirExists(t, clone)

	store, err = cache.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, found, err := store.Lookup(context.Background(), "https://github.com/psf/black", "22.3.0")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCleanCommand_MissingCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	t.Setenv("HOOKRUN_HOME", dir)

	ui := cliUI(t)
	cmd := &CleanCommand{BaseCommand: BaseCommand{UI: ui}}
	assert.Equal(t, 0, cmd.Run([]string{"-v"}))
	assert.Contains(t, ui.OutputWriter.String(), "No cache at "+dir)
	assert.NoDirExists(t, dir, "clean must not create the cache")
}
