package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"myco/capability"
)

func mintToken(t *testing.T, s *State, kind capability.Kind, value string) string {
	t.Helper()
	token, err := s.Capabilities.Register(capability.Capability{Kind: kind, Value: value})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestResolvePathFileCapability(t *testing.T) {
	s := newTestState(t)
	file := filepath.Join(s.Cwd(), "f.txt")
	token := mintToken(t, s, capability.ReadFile, file)

	got, err := resolvePath(s, token, "", false, accessRead)
	if err != nil {
		t.Fatalf("resolvePath: %v", err)
	}
	if got != file {
		t.Fatalf("got %q, want %q", got, file)
	}
}

func TestResolvePathFileCapabilityRejectsSubPath(t *testing.T) {
	s := newTestState(t)
	token := mintToken(t, s, capability.ReadFile, filepath.Join(s.Cwd(), "f.txt"))

	_, err := resolvePath(s, token, "other.txt", true, accessRead)
	if err == nil || !strings.Contains(err.Error(), "invalid token for read access") {
		t.Fatalf("got %v", err)
	}
}

func TestResolvePathDirCapabilityResolvesSubPath(t *testing.T) {
	s := newTestState(t)
	sub := filepath.Join(s.Cwd(), "data")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	token := mintToken(t, s, capability.ReadDir, s.Cwd())

	got, err := resolvePath(s, token, "data", true, accessRead)
	if err != nil {
		t.Fatalf("resolvePath: %v", err)
	}
	want, _ := capability.Canonicalize(sub)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolvePathDirCapabilityRequiresSubPath(t *testing.T) {
	s := newTestState(t)
	token := mintToken(t, s, capability.ReadDir, s.Cwd())

	if _, err := resolvePath(s, token, "", false, accessRead); err == nil {
		t.Fatal("expected error for dir capability without sub-path")
	}
}

func TestResolvePathDirCapabilityRejectsEscape(t *testing.T) {
	s := newTestState(t)
	token := mintToken(t, s, capability.ReadDir, s.Cwd())

	if _, err := resolvePath(s, token, "../secret", true, accessRead); err == nil {
		t.Fatal("expected scope error for escaping sub-path")
	}
}

func TestResolvePathAccessKindMismatch(t *testing.T) {
	s := newTestState(t)
	token := mintToken(t, s, capability.ReadFile, filepath.Join(s.Cwd(), "f.txt"))

	_, err := resolvePath(s, token, "", false, accessWrite)
	if err == nil || !strings.Contains(err.Error(), "invalid token for write access") {
		t.Fatalf("got %v", err)
	}
}

func TestResolvePathUnknownToken(t *testing.T) {
	s := newTestState(t)
	if _, err := resolvePath(s, "not-a-token", "", false, accessExec); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestFetchURLResolution(t *testing.T) {
	s := newTestState(t)
	exact := mintToken(t, s, capability.FetchURL, "https://example.com/a")
	prefix := mintToken(t, s, capability.FetchPrefix, "https://example.com/pkg/")

	got, err := resolveFetchURL(s, exact, "", false)
	if err != nil || got != "https://example.com/a" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := resolveFetchURL(s, exact, "x", true); err == nil {
		t.Fatal("FetchUrl token accepted a sub-path")
	}

	got, err = resolveFetchURL(s, prefix, "left-pad/1.0.0", true)
	if err != nil || got != "https://example.com/pkg/left-pad/1.0.0" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := resolveFetchURL(s, prefix, "", false); err == nil {
		t.Fatal("FetchPrefix token accepted a missing sub-path")
	}
	if _, err := resolveFetchURL(s, prefix, "../admin", true); err == nil {
		t.Fatal("path traversal accepted")
	}
	if _, err := resolveFetchURL(s, prefix, "http://evil.test/", true); err == nil {
		t.Fatal("host switch accepted")
	}
}

func TestDropFirstNLines(t *testing.T) {
	in := "Error\n    at trace\n    at user (file:///a.ts:1:1)"
	if got := dropFirstNLines(in, 2); got != "    at user (file:///a.ts:1:1)" {
		t.Fatalf("got %q", got)
	}
	if got := dropFirstNLines("one line", 2); got != "" {
		t.Fatalf("got %q", got)
	}
}
