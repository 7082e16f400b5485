package gitrepo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testRepoURL = "https://example.org/biobeamer.git"

func TestLedger_EmptyWhenMissing(t *testing.T) {
	l, err := LoadLedger(t.TempDir(), testRepoURL)
	if err != nil {
		t.Fatalf("LoadLedger returned error: %v", err)
	}
	if _, ok := l.Tag("v1.0.0"); ok {
		t.Error("empty ledger reported a pinned tag")
	}
	if _, ok := l.Branch("main"); ok {
		t.Error("empty ledger reported a branch")
	}
}

func TestLedger_Roundtrip(t *testing.T) {
	root := t.TempDir()

	l, err := LoadLedger(root, testRepoURL)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.PinTag("v1.0.0", "aaaa"); err != nil {
		t.Fatalf("PinTag: %v", err)
	}
	if err := l.SetBranch("main", "bbbb"); err != nil {
		t.Fatalf("SetBranch: %v", err)
	}

	reloaded, err := LoadLedger(root, testRepoURL)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if h, ok := reloaded.Tag("v1.0.0"); !ok || h != "aaaa" {
		t.Errorf("Tag = %q, %v", h, ok)
	}
	if h, ok := reloaded.Branch("main"); !ok || h != "bbbb" {
		t.Errorf("Branch = %q, %v", h, ok)
	}
}

func TestLedger_ScopedByRepoURL(t *testing.T) {
	root := t.TempDir()

	l, err := LoadLedger(root, testRepoURL)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.PinTag("v1.0.0", "aaaa"); err != nil {
		t.Fatal(err)
	}

	other, err := LoadLedger(root, "https://example.org/other.git")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := other.Tag("v1.0.0"); ok {
		t.Error("ledger for a different repo URL sees the first repo's pins")
	}
}

func TestLedger_CorruptFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "refs-"+repoKey(testRepoURL)+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadLedger(root, testRepoURL)
	if !errors.Is(err, ErrCorruptCache) {
		t.Fatalf("err = %v, want ErrCorruptCache", err)
	}
}
