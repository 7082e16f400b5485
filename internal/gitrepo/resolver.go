package gitrepo

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Resolver maps a ref onto the concrete object it currently designates.
//
// Tags are immutable by contract: the first resolution pins the tag's hash
// in the ledger and every later resolution that can see the remote verifies
// it, failing with ErrTagMoved on any drift. Branch handling depends on the
// sync flag: enabled means "consult the remote every run", disabled means
// "reuse the last locally recorded tip" (stale by design), degrading to a
// first-time remote lookup when no local state exists yet.
type Resolver struct {
	Ledger *Ledger
	Sync   bool
	Logger *log.Logger

	// listRemote is a test seam. nil means go-git's remote advertisement.
	listRemote func(ctx context.Context, repoURL string) (map[string]string, error)
}

// Resolve returns the resolved object for ref on repoURL.
func (r *Resolver) Resolve(ctx context.Context, repoURL string, ref Ref) (Resolved, error) {
	switch ref.Kind {
	case RefTag:
		return r.resolveTag(ctx, repoURL, ref)
	case RefBranch:
		return r.resolveBranch(ctx, repoURL, ref)
	default:
		return Resolved{}, fmt.Errorf("unknown ref kind %d", ref.Kind)
	}
}

func (r *Resolver) resolveTag(ctx context.Context, repoURL string, ref Ref) (Resolved, error) {
	pinned, isPinned := r.Ledger.Tag(ref.Name)

	refs, err := r.list(ctx, repoURL)
	if err != nil {
		if isPinned {
			// Offline but pinned: the pin is stable forever, so the run can
			// proceed without the remote.
			r.Logger.Warn("remote unreachable, using pinned tag", "tag", ref.Name, "err", err)
			return Resolved{Ref: ref, Hash: pinned}, nil
		}
		return Resolved{}, fmt.Errorf("%w: list refs of %s: %v", ErrFetch, repoURL, err)
	}

	hash, ok := refs[ref.fullName()]
	if !ok {
		if isPinned {
			r.Logger.Warn("tag no longer advertised by remote, using pinned value", "tag", ref.Name)
			return Resolved{Ref: ref, Hash: pinned}, nil
		}
		return Resolved{}, fmt.Errorf("%w: tag %q on %s", ErrRefNotFound, ref.Name, repoURL)
	}

	if isPinned {
		if hash != pinned {
			return Resolved{}, fmt.Errorf("%w: tag %q was pinned to %s but the remote now reports %s; if the tag was re-pointed deliberately, %s",
				ErrTagMoved, ref.Name, pinned, hash, RecoveryHint)
		}
		return Resolved{Ref: ref, Hash: pinned}, nil
	}

	if err := r.Ledger.PinTag(ref.Name, hash); err != nil {
		return Resolved{}, err
	}
	r.Logger.Debug("pinned tag", "tag", ref.Name, "hash", hash)
	return Resolved{Ref: ref, Hash: hash}, nil
}

func (r *Resolver) resolveBranch(ctx context.Context, repoURL string, ref Ref) (Resolved, error) {
	if !r.Sync {
		if last, ok := r.Ledger.Branch(ref.Name); ok {
			r.Logger.Debug("branch sync disabled, using last-seen tip", "branch", ref.Name, "hash", last)
			return Resolved{Ref: ref, Hash: last}, nil
		}
		// No local state yet: degrade to a one-time remote lookup.
		r.Logger.Info("no local state for branch, performing first-time lookup", "branch", ref.Name)
	}

	refs, err := r.list(ctx, repoURL)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: list refs of %s: %v", ErrFetch, repoURL, err)
	}
	hash, ok := refs[ref.fullName()]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: branch %q on %s", ErrRefNotFound, ref.Name, repoURL)
	}

	if err := r.Ledger.SetBranch(ref.Name, hash); err != nil {
		return Resolved{}, err
	}
	return Resolved{Ref: ref, Hash: hash}, nil
}

func (r *Resolver) list(ctx context.Context, repoURL string) (map[string]string, error) {
	if r.listRemote != nil {
		return r.listRemote(ctx, repoURL)
	}
	return listRemoteRefs(ctx, repoURL)
}

// listRemoteRefs fetches the remote's ref advertisement without cloning or
// transferring objects.
func listRemoteRefs(ctx context.Context, repoURL string) (map[string]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		if ref.Type() != plumbing.HashReference {
			continue
		}
		out[ref.Name().String()] = ref.Hash().String()
	}
	return out, nil
}
