package gitrepo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// RefKind classifies a ref. Tags are pinned: once resolved, their commit is
// recorded and must never change. Branches track the remote tip (or the
// last locally seen tip when branch syncing is off).
type RefKind int

const (
	RefTag RefKind = iota
	RefBranch
)

func (k RefKind) String() string {
	if k == RefBranch {
		return "branch"
	}
	return "tag"
}

// Ref is a named pointer into the BioBeamer history.
type Ref struct {
	Kind RefKind
	Name string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.Name)
}

// fullName is the complete ref name as advertised by the remote.
func (r Ref) fullName() string {
	if r.Kind == RefBranch {
		return "refs/heads/" + r.Name
	}
	return "refs/tags/" + r.Name
}

// Resolved is the concrete object a ref currently designates. For annotated
// tags Hash names the tag object; the repository cache peels it to a commit
// at checkout time. Identity is what matters here: the hash changes iff the
// ref was re-pointed.
type Resolved struct {
	Ref  Ref
	Hash string
}

// VersionID keys the per-version environment. Tags map to their own name so
// a tag always reuses the same environment; branches include the commit so
// two states of one branch never share an environment.
func (r Resolved) VersionID() string {
	if r.Ref.Kind == RefBranch {
		return r.Ref.Name + "@" + shortHash(r.Hash)
	}
	return r.Ref.Name
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// repoKey derives a filesystem-safe, collision-free directory name for a
// repository URL: the URL's base name plus a digest of the full URL, so two
// repos with the same base name never collide on disk.
func repoKey(repoURL string) string {
	base := strings.TrimSuffix(path.Base(strings.TrimSuffix(repoURL, "/")), ".git")
	base = sanitize(base)
	if base == "" || base == "." {
		base = "repo"
	}
	sum := sha256.Sum256([]byte(repoURL))
	return base + "-" + hex.EncodeToString(sum[:4])
}

// sanitize maps an arbitrary identifier onto a portable file name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
