// Package transpile turns a single TypeScript source file into JavaScript
// plus a source map. It is pure: the only I/O it performs is reading
// the one input file, and it caches nothing — the module loader owns
// caching.
package transpile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Result is the output of a successful transpile: the emitted JavaScript,
// the raw source-map JSON (as esbuild produced it, before any rewriting),
// and the absolute path of the original file the map's "sources" entry
// must name.
type Result struct {
	JS            []byte
	MapJSON       []byte
	AbsSourcePath string
}

// Kind classifies a TS-family extension so the right esbuild loader is
// selected. Only .ts/.tsx/.mts/.cts reach this package — the module loader
// routes .js/.mjs/.cjs/.jsx and .json elsewhere.
type Kind int

const (
	KindTS Kind = iota
	KindTSX
)

// KindForExt maps a lowercase extension (without the dot) to a Kind, or
// false if the extension is not TS-family.
func KindForExt(ext string) (Kind, bool) {
	switch ext {
	case "ts", "mts", "cts":
		return KindTS, true
	case "tsx":
		return KindTSX, true
	default:
		return 0, false
	}
}

// FileError wraps a failure reading the one input file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("transpile: read %s: %s", e.Path, e.Err)
}
func (e *FileError) Unwrap() error { return e.Err }

// ParseError wraps a diagnostic-bearing esbuild parse/codegen failure.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("transpile: %s: %s", e.Path, e.Msg)
}

// MapError wraps a failure decoding esbuild's own source-map JSON — this
// should never happen for a map esbuild itself produced, but is surfaced
// distinctly from ParseError so callers can tell the two stages apart.
type MapError struct {
	Path string
	Err  error
}

func (e *MapError) Error() string {
	return fmt.Sprintf("transpile: %s: source map: %s", e.Path, e.Err)
}
func (e *MapError) Unwrap() error { return e.Err }

// defaultTsconfigRaw disables tslib import helpers so transpiled output
// never needs a runtime dependency the loader cannot resolve.
const defaultTsconfigRaw = `{"compilerOptions":{"importHelpers":false}}`

// Transpile reads absPath, strips TypeScript types, and emits ES module
// JavaScript plus an external source map. absPath must already be absolute
// and canonical — the module loader resolves it before calling in.
func Transpile(absPath string) (*Result, error) {
	kind, ok := KindForExt(strings.TrimPrefix(filepath.Ext(absPath), "."))
	if !ok {
		kind = KindTS
	}

	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &FileError{Path: absPath, Err: err}
	}

	loader := api.LoaderTS
	if kind == KindTSX {
		loader = api.LoaderTSX
	}

	result := api.Transform(string(source), api.TransformOptions{
		Loader:      loader,
		Target:      api.ESNext,
		Format:      api.FormatESModule,
		Sourcemap:   api.SourceMapExternal,
		Sourcefile:  absPath,
		TsconfigRaw: defaultTsconfigRaw,
	})

	if len(result.Errors) > 0 {
		var b strings.Builder
		for i, msg := range result.Errors {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(msg.Text)
			if msg.Location != nil {
				fmt.Fprintf(&b, " (%d:%d)", msg.Location.Line, msg.Location.Column)
			}
		}
		return nil, &ParseError{Path: absPath, Msg: b.String()}
	}

	if len(result.Map) == 0 {
		return &Result{JS: result.Code, AbsSourcePath: absPath}, nil
	}

	// esbuild's Sourcefile is whatever string we pass as Sourcefile; force
	// the map's "sources" entry to the absolute path regardless, so stack
	// frames rewrite to a path the user can open.
	var generic map[string]any
	if err := json.Unmarshal(result.Map, &generic); err != nil {
		return nil, &MapError{Path: absPath, Err: err}
	}
	generic["sources"] = []string{absPath}
	mapJSON, err := json.Marshal(generic)
	if err != nil {
		return nil, &MapError{Path: absPath, Err: err}
	}

	return &Result{JS: result.Code, MapJSON: mapJSON, AbsSourcePath: absPath}, nil
}
