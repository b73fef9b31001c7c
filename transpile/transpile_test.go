package transpile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranspileStripsTypes(t *testing.T) {
	path := writeSource(t, "main.ts", "const x: number = 1;\nexport default x;\n")

	result, err := Transpile(path)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	js := string(result.JS)
	if strings.Contains(js, ": number") {
		t.Fatalf("type annotation survived transpilation:\n%s", js)
	}
	if !strings.Contains(js, "export default") {
		t.Fatalf("export lost in transpilation:\n%s", js)
	}
}

func TestTranspileMapNamesAbsoluteSource(t *testing.T) {
	path := writeSource(t, "main.ts", "export const greeting: string = \"hi\";\n")

	result, err := Transpile(path)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	if len(result.MapJSON) == 0 {
		t.Fatal("expected a source map")
	}

	var m struct {
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(result.MapJSON, &m); err != nil {
		t.Fatalf("map is not valid JSON: %v", err)
	}
	if len(m.Sources) != 1 || m.Sources[0] != path {
		t.Fatalf("sources = %v, want [%s]", m.Sources, path)
	}
}

func TestTranspileDeterministic(t *testing.T) {
	path := writeSource(t, "main.ts", "export function add(a: number, b: number): number { return a + b; }\n")

	first, err := Transpile(path)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	second, err := Transpile(path)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	if string(first.JS) != string(second.JS) || string(first.MapJSON) != string(second.MapJSON) {
		t.Fatal("two transpilations of the same input differ")
	}
}

func TestTranspileParseError(t *testing.T) {
	path := writeSource(t, "broken.ts", "export default (\n")

	_, err := Transpile(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Path != path {
		t.Fatalf("error path = %q, want %q", parseErr.Path, path)
	}
}

func TestTranspileMissingFile(t *testing.T) {
	_, err := Transpile(filepath.Join(t.TempDir(), "nope.ts"))
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected *FileError, got %T: %v", err, err)
	}
}

func TestKindForExt(t *testing.T) {
	cases := []struct {
		ext  string
		kind Kind
		ok   bool
	}{
		{"ts", KindTS, true},
		{"mts", KindTS, true},
		{"cts", KindTS, true},
		{"tsx", KindTSX, true},
		{"js", 0, false},
		{"json", 0, false},
	}
	for _, c := range cases {
		kind, ok := KindForExt(c.ext)
		if ok != c.ok || (ok && kind != c.kind) {
			t.Errorf("KindForExt(%q) = %v,%v", c.ext, kind, ok)
		}
	}
}
