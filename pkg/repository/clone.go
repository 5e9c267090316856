package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// cloneAt clones url into dir and checks out rev
func cloneAt(ctx context.Context, url, rev, dir string) error {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository %s: %w", url, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	hash, err := resolveRevision(repo, rev)
	if err != nil {
		return err
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout revision %s: %w", rev, err)
	}
	return nil
}

// resolveRevision finds rev as a tag, a branch, or a commit hash, in that order
func resolveRevision(repo *git.Repository, rev string) (plumbing.Hash, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(rev),
		plumbing.NewRemoteReferenceName("origin", rev),
		plumbing.NewBranchReferenceName(rev),
	}
	for _, name := range candidates {
		ref, err := repo.Reference(name, true)
		if err != nil {
			continue
		}
		// Annotated tags point at a tag object, not the commit.
		if tag, err := repo.TagObject(ref.Hash()); err == nil {
			commit, err := tag.Commit()
			if err != nil {
				return plumbing.ZeroHash, fmt.Errorf("failed to peel tag %s: %w", rev, err)
			}
			return commit.Hash, nil
		}
		return ref.Hash(), nil
	}

	if isCommitHash(rev) {
		hash, err := repo.ResolveRevision(plumbing.Revision(rev))
		if err == nil {
			return *hash, nil
		}
	}

	return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
}

func isCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

func removeFailedClone(dir string) {
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to remove partial clone %s: %v", dir, err)
	}
}
