package module

import (
	"path/filepath"
	"sync"
)

// Kind classifies a loaded module's content.
type Kind int

const (
	KindJS Kind = iota
	KindJSON
)

// PathToURL converts an absolute filesystem path to its module URL
// identity: "file://<absolute-path>".
func PathToURL(absPath string) string {
	return "file://" + filepath.ToSlash(absPath)
}

// record is the bookkeeping kept for one compiled module.
type record struct {
	AbsPath      string
	Kind         Kind
	HasSourceMap bool
}

// URLMap is the per-isolate Module URL → Path map: it records every
// compiled module's absolute filesystem path keyed by its URL, used both to
// determine the base path for resolving a module's own imports and to
// answer "which file produced this stack frame" during error rewriting
// (the latter job is delegated to stacktrace.Store, keyed the same way).
type URLMap struct {
	mu      sync.Mutex
	records map[string]*record // URL -> record
}

// NewURLMap returns an empty map.
func NewURLMap() *URLMap {
	return &URLMap{records: make(map[string]*record)}
}

// Register records url -> absPath; the loader calls it before
// instantiation so the resolver callback can already find the referrer.
// Re-registering the same URL is a no-op — two relative forms of the same
// file dedupe to one record.
func (m *URLMap) Register(url, absPath string, kind Kind, hasSourceMap bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[url]; ok {
		return
	}
	m.records[url] = &record{AbsPath: absPath, Kind: kind, HasSourceMap: hasSourceMap}
}

// Has reports whether a URL has already been registered (i.e. the module is
// already compiled, so the loader must reuse rather than recompile it).
func (m *URLMap) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[url]
	return ok
}

// PathFor returns the absolute path recorded for a module URL.
func (m *URLMap) PathFor(url string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[url]
	if !ok {
		return "", false
	}
	return r.AbsPath, true
}

// BaseDirFor returns the directory a module's own relative imports resolve
// against: the directory containing the file behind url.
func (m *URLMap) BaseDirFor(url string) (string, bool) {
	path, ok := m.PathFor(url)
	if !ok {
		return "", false
	}
	return filepath.Dir(path), true
}
