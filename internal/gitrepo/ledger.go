package gitrepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Ledger is the persisted record of resolved refs for one repository:
// pinned tag targets (for integrity enforcement) and last-seen branch tips
// (the offline source when branch syncing is off). It lives under the cache
// root next to the clone, one file per repository.
type Ledger struct {
	path string

	Tags     map[string]string `json:"tags"`
	Branches map[string]string `json:"branches"`
}

// LoadLedger reads the ledger for repoURL from the cache root, returning an
// empty ledger when none exists yet. A present-but-unreadable ledger is a
// corrupt cache, not an empty one: silently starting fresh would defeat the
// tag pinning it exists for.
func LoadLedger(cacheRoot, repoURL string) (*Ledger, error) {
	l := &Ledger{
		path:     filepath.Join(cacheRoot, "refs-"+repoKey(repoURL)+".json"),
		Tags:     make(map[string]string),
		Branches: make(map[string]string),
	}

	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read ref ledger %s: %v (%s)", ErrCorruptCache, l.path, err, RecoveryHint)
	}
	if err := json.Unmarshal(raw, l); err != nil {
		return nil, fmt.Errorf("%w: parse ref ledger %s: %v (%s)", ErrCorruptCache, l.path, err, RecoveryHint)
	}
	if l.Tags == nil {
		l.Tags = make(map[string]string)
	}
	if l.Branches == nil {
		l.Branches = make(map[string]string)
	}
	return l, nil
}

// Tag returns the pinned hash for a tag name, if any.
func (l *Ledger) Tag(name string) (string, bool) {
	h, ok := l.Tags[name]
	return h, ok
}

// Branch returns the last-seen hash for a branch name, if any.
func (l *Ledger) Branch(name string) (string, bool) {
	h, ok := l.Branches[name]
	return h, ok
}

// PinTag records a tag's resolved hash and persists the ledger.
func (l *Ledger) PinTag(name, hash string) error {
	l.Tags[name] = hash
	return l.save()
}

// SetBranch records a branch's resolved hash and persists the ledger.
func (l *Ledger) SetBranch(name, hash string) error {
	l.Branches[name] = hash
	return l.save()
}

func (l *Ledger) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("write ref ledger: %w", err)
	}
	raw, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ref ledger: %w", err)
	}
	// Write-then-rename so a crash mid-write never leaves a half-written
	// ledger that a later run would report as corrupt.
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write ref ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("write ref ledger: %w", err)
	}
	return nil
}
