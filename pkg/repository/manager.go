// Package repository resolves the hook repositories named in a config into
// runnable hook definitions, cloning remote ones into the cache
package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/blairham/hookrun/pkg/cache"
	"github.com/blairham/hookrun/pkg/config"
	"github.com/blairham/hookrun/pkg/logging"
)

var log = logging.NewLogger("repository")

var (
	// ErrHookNotFound is returned when a repository does not publish the requested hook id
	ErrHookNotFound = errors.New("hook not found in repository")
	// ErrRevisionNotFound is returned when rev names no tag, branch or commit
	ErrRevisionNotFound = errors.New("revision not found")
)

// Manager hands out checkouts of hook repositories
type Manager struct {
	store     *cache.Store
	checkouts map[string]string
	manifests map[string][]config.Hook
	mu        sync.Mutex
}

// NewManager creates a manager backed by store
func NewManager(store *cache.Store) *Manager {
	return &Manager{
		store:     store,
		checkouts: make(map[string]string),
		manifests: make(map[string][]config.Hook),
	}
}

// Checkout returns a directory holding repo at its pinned rev, cloning it on
// first use
func (m *Manager) Checkout(ctx context.Context, repo config.Repo) (string, error) {
	key := repo.Repo + "@" + repo.Rev

	m.mu.Lock()
	defer m.mu.Unlock()

	if path, ok := m.checkouts[key]; ok {
		return path, nil
	}

	var path string
	err := m.store.Lock().WithLock(ctx, func() error {
		cached, found, err := m.store.Lookup(ctx, repo.Repo, repo.Rev)
		if err != nil {
			return err
		}
		if found {
			path = cached
			return nil
		}

		start := time.Now()
		dir, err := m.store.NewRepoDir()
		if err != nil {
			return err
		}
		log.WithField("repo", repo.Repo).Infof("cloning at %s into %s", repo.Rev, dir)
		if err := cloneAt(ctx, repo.Repo, repo.Rev, dir); err != nil {
			removeFailedClone(dir)
			return err
		}
		logging.LogTiming("clone "+repo.Repo, start)

		path = dir
		return m.store.Record(ctx, repo.Repo, repo.Rev, dir)
	})
	if err != nil {
		return "", err
	}

	m.checkouts[key] = path
	return path, nil
}

// Resolve produces the effective definition of hook as declared under repo,
// together with the directory its entry should resolve against. Local hooks
// come back unchanged with an empty directory. Remote hooks are looked up in
// the repository's manifest and the declared fields are layered on top.
func (m *Manager) Resolve(ctx context.Context, repo config.Repo, hook config.Hook) (config.Hook, string, error) {
	if repo.IsLocal() {
		return hook, "", nil
	}

	path, err := m.Checkout(ctx, repo)
	if err != nil {
		// a reachable repository pinned at a bad rev must not run unpinned
		if errors.Is(err, ErrRevisionNotFound) || ctx.Err() != nil {
			return config.Hook{}, "", fmt.Errorf("failed to fetch %s: %w", repo.Repo, err)
		}
		base, ok := config.GetWellKnownHook(repo.Repo, hook.ID)
		if !ok {
			return config.Hook{}, "", fmt.Errorf("failed to fetch %s: %w", repo.Repo, err)
		}
		log.WithField("repo", repo.Repo).Warnf("using built-in definition of %s: %v", hook.ID, err)
		return config.MergeHook(base, hook), "", nil
	}

	manifest, err := m.manifest(path)
	if err != nil {
		return config.Hook{}, "", err
	}
	for _, base := range manifest {
		if base.ID == hook.ID {
			return config.MergeHook(base, hook), path, nil
		}
	}
	return config.Hook{}, "", fmt.Errorf("%w: %s does not define %q at %s", ErrHookNotFound, repo.Repo, hook.ID, repo.Rev)
}

func (m *Manager) manifest(path string) ([]config.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hooks, ok := m.manifests[path]; ok {
		return hooks, nil
	}
	hooks, err := config.LoadManifest(filepath.Join(path, config.ManifestFileName))
	if err != nil {
		return nil, err
	}
	m.manifests[path] = hooks
	return hooks, nil
}
