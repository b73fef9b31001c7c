package module

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"myco/hosterr"
)

func mkFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("export default 0;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveRelativeSpecifier(t *testing.T) {
	dir := t.TempDir()
	want := mkFile(t, dir, "util.ts")

	got, err := Resolve("./util.ts", dir, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveAppendsTSExtension(t *testing.T) {
	dir := t.TempDir()
	want := mkFile(t, dir, "util.ts")

	got, err := Resolve("./util", dir, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveDirectoryIndex(t *testing.T) {
	dir := t.TempDir()
	want := mkFile(t, dir, filepath.Join("lib", "index.ts"))

	got, err := Resolve("./lib", dir, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveDirectoryIndexOrder(t *testing.T) {
	// index.ts wins over index.js when both exist.
	dir := t.TempDir()
	want := mkFile(t, dir, filepath.Join("lib", "index.ts"))
	mkFile(t, dir, filepath.Join("lib", "index.js"))

	got, err := Resolve("./lib", dir, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveDirectoryWithoutIndexFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve("./empty", dir, nil)
	var resErr *hosterr.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected *hosterr.ResolutionError, got %T: %v", err, err)
	}
}

func TestResolveMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve("./missing.ts", dir, nil)
	var resErr *hosterr.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected *hosterr.ResolutionError, got %T: %v", err, err)
	}
}

func TestResolveFileURL(t *testing.T) {
	dir := t.TempDir()
	want := mkFile(t, dir, "entry.ts")

	got, err := Resolve("file://"+want, "/somewhere/else", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveThroughAlias(t *testing.T) {
	lib := t.TempDir()
	want := mkFile(t, lib, "strings.ts")

	aliases := AliasMap{"@local/lib-std": lib}
	got, err := Resolve("@local/lib-std/strings", t.TempDir(), aliases)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want fileKind
	}{
		{"/a/b.ts", fileKindTS},
		{"/a/b.mts", fileKindTS},
		{"/a/b.cts", fileKindTS},
		{"/a/b.tsx", fileKindTS},
		{"/a/b.js", fileKindJS},
		{"/a/b.mjs", fileKindJS},
		{"/a/b.cjs", fileKindJS},
		{"/a/b.jsx", fileKindJS},
		{"/a/b.json", fileKindJSON},
		{"/a/b.wasm", fileKindUnknown},
	}
	for _, c := range cases {
		if got := classify(c.path); got != c.want {
			t.Errorf("classify(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
