package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"myco/capability"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	return NewState(context.Background(), capability.NewRegistry(), nil, nil, t.TempDir(), []string{"prog"})
}

func TestChdirToDirectory(t *testing.T) {
	s := newTestState(t)
	target := filepath.Join(s.Cwd(), "sub")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := s.Chdir("sub"); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	if s.Cwd() != target {
		t.Fatalf("cwd = %q, want %q", s.Cwd(), target)
	}
}

func TestChdirRejectsFile(t *testing.T) {
	s := newTestState(t)
	file := filepath.Join(s.Cwd(), "f.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Chdir("f.txt"); err == nil {
		t.Fatal("expected error for chdir to a file")
	}
}

func TestChdirRejectsMissingPath(t *testing.T) {
	s := newTestState(t)
	if err := s.Chdir("nope"); err == nil {
		t.Fatal("expected error for chdir to missing path")
	}
}

func TestResolveRelativeAgainstTrackedCwd(t *testing.T) {
	s := newTestState(t)

	got := s.resolveRelative("data/x.txt")
	want := filepath.Join(s.Cwd(), "data", "x.txt")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := s.resolveRelative("/abs/x.txt"); got != "/abs/x.txt" {
		t.Fatalf("absolute path rewritten: %q", got)
	}
}
