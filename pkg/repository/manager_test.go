package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blairham/hookrun/pkg/cache"
	"github.com/blairham/hookrun/pkg/config"
)

const manifestV1 = `- id: lint
  name: lint files
  entry: lint-tool
  language: python
  types: [python]
  require_serial: true
- id: fmt
  name: format
  entry: fmt-tool
  language: python
`

const manifestV2 = `- id: lint
  name: lint files v2
  entry: lint-tool --v2
  language: python
  types: [python]
`

var signature = &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)}

// newHookRepo creates a hook repository with tag v1 (lightweight) and v2 (annotated)
func newHookRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(manifest, msg string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.ManifestFileName), []byte(manifest), 0o600))
		_, err := wt.Add(config.ManifestFileName)
		require.NoError(t, err)
		_, err = wt.Commit(msg, &git.CommitOptions{Author: signature})
		require.NoError(t, err)
	}

	commit(manifestV1, "v1")
	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1", head.Hash(), nil)
	require.NoError(t, err)

	commit(manifestV2, "v2")
	head, err = repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v2", head.Hash(), &git.CreateTagOptions{Tagger: signature, Message: "v2"})
	require.NoError(t, err)

	return dir
}

func newManager(t *testing.T) (*Manager, *cache.Store) {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store), store
}

func TestManager_ResolveLocal(t *testing.T) {
	m, _ := newManager(t)
	hook := config.Hook{ID: "mypy", Entry: "inv type-check", Language: config.LanguageSystem}

	got, path, err := m.Resolve(context.Background(), config.Repo{Repo: config.LocalRepo}, hook)
	require.NoError(t, err)
	assert.Equal(t, hook, got)
	assert.Empty(t, path)
}

func TestManager_ResolveRemoteMergesManifest(t *testing.T) {
	src := newHookRepo(t)
	m, _ := newManager(t)

	repo := config.Repo{Repo: src, Rev: "v1"}
	got, path, err := m.Resolve(context.Background(), repo, config.Hook{ID: "lint", Args: []string{"--strict"}})
	require.NoError(t, err)

	assert.Equal(t, "lint files", got.Name)
	assert.Equal(t, "lint-tool", got.Entry)
	assert.Equal(t, []string{"python"}, got.Types)
	assert.Equal(t, []string{"--strict"}, got.Args)
	assert.True(t, got.RequireSerial)
	assert.FileExists(t, filepath.Join(path, config.ManifestFileName))
}

func TestManager_ResolveAnnotatedTag(t *testing.T) {
	src := newHookRepo(t)
	m, _ := newManager(t)

	got, _, err := m.Resolve(context.Background(), config.Repo{Repo: src, Rev: "v2"}, config.Hook{ID: "lint"})
	require.NoError(t, err)
	assert.Equal(t, "lint-tool --v2", got.Entry)
}

func TestManager_HookNotFound(t *testing.T) {
	src := newHookRepo(t)
	m, _ := newManager(t)

	_, _, err := m.Resolve(context.Background(), config.Repo{Repo: src, Rev: "v2"}, config.Hook{ID: "fmt"})
	assert.ErrorIs(t, err, ErrHookNotFound)
}

func TestManager_CheckoutIsCached(t *testing.T) {
	src := newHookRepo(t)
	ctx := context.Background()
	m, store := newManager(t)
	repo := config.Repo{Repo: src, Rev: "v1"}

	first, err := m.Checkout(ctx, repo)
	require.NoError(t, err)

	recorded, found, err := store.Lookup(ctx, src, "v1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, recorded)

	// A second manager over the same store reuses the clone.
	second, err := NewManager(store).Checkout(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := m.Checkout(ctx, config.Repo{Repo: src, Rev: "v2"})
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestManager_UnknownRevision(t *testing.T) {
	src := newHookRepo(t)
	m, store := newManager(t)

	_, err := m.Checkout(context.Background(), config.Repo{Repo: src, Rev: "v9"})
	assert.ErrorIs(t, err, ErrRevisionNotFound)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.IsDir(), "failed clone left %s behind", e.Name())
	}
}

func TestManager_FallsBackToWellKnown(t *testing.T) {
	m, _ := newManager(t)
	repo := config.Repo{Repo: "file:///nonexistent/hookrun-test/black", Rev: "22.3.0"}

	_, _, err := m.Resolve(context.Background(), repo, config.Hook{ID: "black"})
	require.Error(t, err, "unknown URLs have no fallback")

	config.WellKnownRepositories[repo.Repo] = map[string]config.Hook{
		"black": {ID: "black", Name: "black", Entry: "black", Language: config.LanguagePython},
	}
	t.Cleanup(func() { delete(config.WellKnownRepositories, repo.Repo) })

	got, path, err := m.Resolve(context.Background(), repo, config.Hook{ID: "black", Args: []string{"-q"}})
	require.NoError(t, err)
	assert.Equal(t, "black", got.Entry)
	assert.Equal(t, []string{"-q"}, got.Args)
	assert.Empty(t, path)
}

func TestManager_UnknownRevisionHasNoFallback(t *testing.T) {
	src := newHookRepo(t)
	m, _ := newManager(t)

	key := strings.ToLower(src)
	config.WellKnownRepositories[key] = map[string]config.Hook{
		"lint": {ID: "lint", Name: "lint", Entry: "builtin-lint", Language: config.LanguagePython},
	}
	t.Cleanup(func() { delete(config.WellKnownRepositories, key) })

	_, _, err := m.Resolve(context.Background(), config.Repo{Repo: src, Rev: "v9-does-not-exist"}, config.Hook{ID: "lint"})
	require.ErrorIs(t, err, ErrRevisionNotFound)

	got, _, err := m.Resolve(context.Background(), config.Repo{Repo: src, Rev: "v1"}, config.Hook{ID: "lint"})
	require.NoError(t, err)
	assert.Equal(t, "lint-tool", got.Entry, "the pinned manifest wins over the built-in one")
}

func TestIsCommitHash(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a1b2c3d", true},
		{"a1b2c3d4e5f6789012345678901234567890abcd", true},
		{"A1B2C3D", true},
		{"a1b2c3", false},
		{"v1.0.0", false},
		{"", false},
		{"a1b2c3d4e5f6789012345678901234567890abcde", false},
	}
	for _, tt := range tests {
		if got := isCommitHash(tt.in); got != tt.want {
			t.Errorf("isCommitHash(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
