package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/require"
)

// localConfig runs `true` on python files and `false` on text files
const localConfig = `repos:
  - repo: local
    hooks:
      - id: py-ok
        name: py ok
        entry: "true"
        language: system
        types: [python]
      - id: txt-bad
        name: txt bad
        entry: "false"
        language: system
        files: \.txt$
`

type fixture struct {
	dir  string
	repo *git.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &fixture{dir: dir, repo: repo}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) stage(t *testing.T, names ...string) {
	t.Helper()
	wt, err := f.repo.Worktree()
	require.NoError(t, err)
	for _, name := range names {
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
}

func (f *fixture) commit(t *testing.T) {
	t.Helper()
	wt, err := f.repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Commit("commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

// base returns a BaseCommand acting on the fixture with captured output
func (f *fixture) base() (BaseCommand, *cli.MockUi) {
	ui := cli.NewMockUi()
	return BaseCommand{UI: ui, Out: ui.OutputWriter, Dir: f.dir}, ui
}

func cliUI(t *testing.T) *cli.MockUi {
	t.Helper()
	return cli.NewMockUi()
}
