// Package git provides Git repository operations for hookrun.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HookMarker identifies hook scripts written by hookrun
const HookMarker = "# installed by hookrun"

// legacySuffix is appended to a pre-existing hook script that hookrun replaced
const legacySuffix = ".legacy"

// ErrNotInRepository is returned when no enclosing git repository is found
var ErrNotInRepository = errors.New("not in a git repository")

// Repository represents a git repository
type Repository struct {
	repo *git.Repository
	Root string
}

// NewRepository opens the repository enclosing path (the working directory when empty)
func NewRepository(path string) (*Repository, error) {
	root, err := FindGitRoot(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	return &Repository{
		Root: root,
		repo: repo,
	}, nil
}

// FindGitRoot finds the root of the git repository
func FindGitRoot(path string) (string, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		gitDir := filepath.Join(path, ".git")
		if info, err := os.Stat(gitDir); err == nil {
			if info.IsDir() {
				return path, nil
			}
			// worktrees and submodules use a .git file pointing at the real git dir
			if content, err := os.ReadFile(filepath.Clean(gitDir)); err == nil &&
				strings.HasPrefix(strings.TrimSpace(string(content)), "gitdir: ") {
				return path, nil
			}
		}

		parent := filepath.Dir(path)
		if parent == path {
			return "", ErrNotInRepository
		}
		path = parent
	}
}

// StagedFiles returns the paths staged for commit, excluding deletions
func (r *Repository) StagedFiles() ([]string, error) {
	status, err := r.status()
	if err != nil {
		return nil, err
	}

	var files []string
	for file, fileStatus := range status {
		switch fileStatus.Staging {
		case git.Added, git.Modified, git.Copied, git.Renamed:
			files = append(files, file)
		}
	}

	slices.Sort(files)
	return files, nil
}

// AllFiles returns every path tracked in the index
func (r *Repository) AllFiles() ([]string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	files := make([]string, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		files = append(files, entry.Name)
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// HasUnmergedFiles reports whether the index holds unresolved conflict entries
func (r *Repository) HasUnmergedFiles() (bool, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return false, fmt.Errorf("failed to read index: %w", err)
	}

	for _, entry := range idx.Entries {
		if entry.Stage != index.Merged {
			return true, nil
		}
	}
	return false, nil
}

// ChangedFiles returns files added or modified between two git references
func (r *Repository) ChangedFiles(fromRef, toRef string) ([]string, error) {
	fromTree, err := r.treeAt(fromRef)
	if err != nil {
		return nil, err
	}

	toTree, err := r.treeAt(toRef)
	if err != nil {
		return nil, err
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s and %s: %w", fromRef, toRef, err)
	}

	var files []string
	for _, change := range changes {
		// deletions have no destination name
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		}
	}

	slices.Sort(files)
	return files, nil
}

// HooksDir returns the directory git reads hook scripts from
func (r *Repository) HooksDir() string {
	return filepath.Join(r.Root, ".git", "hooks")
}

// InstallHook writes a hook script. A foreign script already in place is moved
// aside to <name>.legacy unless overwrite is set.
func (r *Repository) InstallHook(hookName, script string, overwrite bool) error {
	hooksDir := r.HooksDir()
	if err := os.MkdirAll(hooksDir, 0o750); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, hookName)
	if existing, err := os.ReadFile(filepath.Clean(hookPath)); err == nil &&
		!strings.Contains(string(existing), HookMarker) && !overwrite {
		if err := os.Rename(hookPath, hookPath+legacySuffix); err != nil {
			return fmt.Errorf("failed to preserve existing hook: %w", err)
		}
	}

	// #nosec G306 -- hook scripts must be executable
	if err := os.WriteFile(hookPath, []byte(script), 0o755); err != nil {
		return fmt.Errorf("failed to write hook file: %w", err)
	}
	// WriteFile keeps the mode of a file it truncates
	if err := os.Chmod(hookPath, 0o755); err != nil { // #nosec G302
		return fmt.Errorf("failed to make hook executable: %w", err)
	}

	return nil
}

// UninstallHook removes a hookrun hook script and restores any legacy script
func (r *Repository) UninstallHook(hookName string) error {
	hookPath := filepath.Join(r.HooksDir(), hookName)

	existing, err := os.ReadFile(filepath.Clean(hookPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hook: %w", err)
	}
	if !strings.Contains(string(existing), HookMarker) {
		return nil
	}

	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("failed to remove hook: %w", err)
	}

	if _, err := os.Stat(hookPath + legacySuffix); err == nil {
		if err := os.Rename(hookPath+legacySuffix, hookPath); err != nil {
			return fmt.Errorf("failed to restore legacy hook: %w", err)
		}
	}
	return nil
}

// HasHook reports whether a hookrun hook script is installed
func (r *Repository) HasHook(hookName string) bool {
	content, err := os.ReadFile(filepath.Clean(filepath.Join(r.HooksDir(), hookName)))
	return err == nil && strings.Contains(string(content), HookMarker)
}

func (r *Repository) status() (git.Status, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return status, nil
}

func (r *Repository) treeAt(ref string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference %s: %w", ref, err)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", ref, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for %s: %w", ref, err)
	}
	return tree, nil
}
