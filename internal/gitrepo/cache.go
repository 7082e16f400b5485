package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/singleflight"

	"biobeamer-launcher/internal/lockfile"
)

// Cache owns the shared working copy of the BioBeamer repository: one clone
// per repository URL under <root>/repos, checked out detached at exactly the
// requested object. It never deletes the clone; manual cache-clear is the
// documented recovery path.
type Cache struct {
	Root   string
	Logger *log.Logger

	group singleflight.Group
}

// Ensure materializes the clone of repoURL checked out at hash (annotated
// tags are peeled to their commit) and returns its path.
//
// Idempotent: when the clone already sits on the wanted commit no network
// I/O happens at all. Concurrent calls for the same repository, in this
// process or another, are serialized via singleflight plus a lock file.
func (c *Cache) Ensure(ctx context.Context, repoURL, hash string) (string, error) {
	key := repoKey(repoURL)
	path, err, _ := c.group.Do(key+"@"+hash, func() (any, error) {
		var dir string
		err := lockfile.WithLock(ctx, c.Root, "repo-"+key, func() error {
			var err error
			dir, err = c.ensureLocked(ctx, repoURL, key, hash)
			return err
		})
		return dir, err
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

func (c *Cache) ensureLocked(ctx context.Context, repoURL, key, hash string) (string, error) {
	dir := filepath.Join(c.Root, "repos", key)

	repo, err := c.openOrClone(ctx, repoURL, dir)
	if err != nil {
		return "", err
	}

	commit, err := c.peelToCommit(ctx, repo, hash)
	if err != nil {
		return "", err
	}

	// Short-circuit: already on the wanted commit.
	if head, err := repo.Head(); err == nil && head.Hash() == commit {
		c.Logger.Debug("repository already at commit", "commit", commit.String())
		return dir, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: open worktree at %s: %v (%s)", ErrCorruptCache, dir, err, RecoveryHint)
	}
	// Detached checkout: later runs for other versions must not disturb an
	// in-flight build that recorded this path.
	if err := wt.Checkout(&git.CheckoutOptions{Hash: commit, Force: true}); err != nil {
		return "", fmt.Errorf("%w: checkout %s at %s: %v (%s)", ErrCorruptCache, commit, dir, err, RecoveryHint)
	}
	c.Logger.Info("repository ready", "path", dir, "commit", commit.String())
	return dir, nil
}

func (c *Cache) openOrClone(ctx context.Context, repoURL, dir string) (*git.Repository, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		c.Logger.Info("cloning repository", "url", repoURL, "path", dir)
		repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:  repoURL,
			Tags: git.AllTags,
		})
		if err != nil {
			// A failed clone must be left cleanly absent, not half-written
			// and mistaken for a corrupt cache on the next run.
			os.RemoveAll(dir)
			return nil, fmt.Errorf("%w: clone %s: %v", ErrFetch, repoURL, err)
		}
		return repo, nil
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v (%s)", ErrCorruptCache, dir, err, RecoveryHint)
	}
	return repo, nil
}

// peelToCommit resolves hash to a commit, fetching from the remote once if
// the object is not yet present locally (e.g. a branch tip that moved since
// the last fetch).
func (c *Cache) peelToCommit(ctx context.Context, repo *git.Repository, hash string) (plumbing.Hash, error) {
	if commit, err := peel(repo, plumbing.NewHash(hash)); err == nil {
		return commit, nil
	}

	c.Logger.Debug("object not present locally, fetching", "hash", hash)
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return plumbing.ZeroHash, fmt.Errorf("%w: fetch: %v", ErrFetch, err)
	}

	commit, err := peel(repo, plumbing.NewHash(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: object %s not present after fetch: %v", ErrFetch, hash, err)
	}
	return commit, nil
}

// peel follows annotated tag objects down to the underlying commit.
func peel(repo *git.Repository, h plumbing.Hash) (plumbing.Hash, error) {
	for {
		if tag, err := repo.TagObject(h); err == nil {
			h = tag.Target
			continue
		}
		if _, err := repo.CommitObject(h); err != nil {
			return plumbing.ZeroHash, err
		}
		return h, nil
	}
}
