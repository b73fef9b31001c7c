package capability

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveUnderRootAllowsRootItself(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveUnderRoot(dir, "/")
	if err != nil {
		t.Fatalf("ResolveUnderRoot: %v", err)
	}
	want, _ := Canonicalize(dir)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveUnderRootAllowsNestedPath(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveUnderRoot(dir, "a/b")
	if err != nil {
		t.Fatalf("ResolveUnderRoot: %v", err)
	}
	want, _ := Canonicalize(sub)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveUnderRootRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveUnderRoot(dir, "../../../../etc/passwd"); err == nil {
		t.Fatal("expected scope error for path traversal, got nil")
	} else if _, ok := err.(*ScopeError); !ok {
		t.Fatalf("expected *ScopeError, got %T: %v", err, err)
	}
}

func TestResolveUnderRootRejectsSymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("shh"), 0o644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(dir, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	if _, err := ResolveUnderRoot(dir, "escape/secret.txt"); err == nil {
		t.Fatal("expected scope error for symlink escape, got nil")
	} else if _, ok := err.(*ScopeError); !ok {
		t.Fatalf("expected *ScopeError, got %T: %v", err, err)
	}
}

func TestCanonicalizeNotYetExistingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "new-file.txt")

	got, err := Canonicalize(target)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	wantDir, _ := Canonicalize(dir)
	if filepath.Dir(got) != wantDir || filepath.Base(got) != "new-file.txt" {
		t.Fatalf("got %q", got)
	}
}
