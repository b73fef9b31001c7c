package module

import (
	"os"
	"path/filepath"
	"strings"

	"myco/hosterr"
)

var indexCandidates = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

// Resolve turns a specifier into the absolute path of an existing file:
// alias rewrite first, then file:// stripping, then relative-join against
// baseDir, then directory-index and extension fallbacks. baseDir is the
// referring module's directory (the working directory for the top-level
// entry and for dynamic imports). aliases may be nil.
func Resolve(specifier, baseDir string, aliases AliasMap) (string, error) {
	candidate := specifier
	if aliases != nil {
		if rewritten, ok := aliases.Resolve(specifier); ok {
			candidate = rewritten
		}
	}

	switch {
	case strings.HasPrefix(candidate, "file://"):
		candidate = strings.TrimPrefix(candidate, "file://")
	case filepath.IsAbs(candidate):
		// use as-is
	default:
		candidate = filepath.Join(baseDir, candidate)
	}
	candidate = filepath.Clean(candidate)

	info, err := os.Stat(candidate)
	if err == nil && info.IsDir() {
		for _, idx := range indexCandidates {
			full := filepath.Join(candidate, idx)
			if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
				return full, nil
			}
		}
		return "", &hosterr.ResolutionError{
			Specifier: specifier, Referrer: baseDir,
			Msg: "directory has no index.ts/.tsx/.js/.jsx",
		}
	}

	if err != nil && filepath.Ext(candidate) == "" {
		candidate += ".ts"
	}

	if _, err := os.Stat(candidate); err != nil {
		return "", &hosterr.ResolutionError{
			Specifier: specifier, Referrer: baseDir,
			Msg: "file does not exist: " + candidate,
		}
	}

	return candidate, nil
}

// fileKind classifies a resolved path's extension family.
type fileKind int

const (
	fileKindTS fileKind = iota
	fileKindJS
	fileKindJSON
	fileKindUnknown
)

func classify(absPath string) fileKind {
	ext := strings.TrimPrefix(filepath.Ext(absPath), ".")
	switch ext {
	case "ts", "mts", "cts", "tsx":
		return fileKindTS
	case "js", "mjs", "cjs", "jsx":
		return fileKindJS
	case "json":
		return fileKindJSON
	default:
		return fileKindUnknown
	}
}
