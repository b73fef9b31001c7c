package capability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScopeError reports that a resolved path fell outside a directory
// capability's root, or that a capability/sub-path combination was
// malformed.
type ScopeError struct {
	Root string
	Path string
	Msg  string
}

func (e *ScopeError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("path %q escapes capability root %q", e.Path, e.Root)
}

// Canonicalize resolves path (relative or absolute) to its absolute,
// symlink-free form, the way engine/runtime's own canonicalizePath does:
// full resolution for existing paths via filepath.EvalSymlinks, falling
// back to resolving just the parent directory for paths that do not yet
// exist on disk (so a capability can be requested against a file that will
// be created later).
func Canonicalize(path string) (string, error) {
	path = filepath.Clean(path)

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(path)), nil
}

// ResolveUnderRoot resolves a user-supplied sub-path against a directory
// capability's canonical root, returning the effective absolute path, or a
// *ScopeError if it would escape the root once canonicalised. "/" names
// the root itself.
func ResolveUnderRoot(root, subPath string) (string, error) {
	rootAbs, err := Canonicalize(root)
	if err != nil {
		return "", fmt.Errorf("resolve capability root: %w", err)
	}

	var joined string
	if subPath == "" || subPath == "/" {
		joined = rootAbs
	} else {
		joined = filepath.Join(rootAbs, strings.TrimPrefix(subPath, "/"))
	}

	effective, err := Canonicalize(joined)
	if err != nil {
		return "", fmt.Errorf("resolve sub-path: %w", err)
	}

	if effective != rootAbs && !strings.HasPrefix(effective, rootAbs+string(filepath.Separator)) {
		return "", &ScopeError{Root: rootAbs, Path: effective}
	}
	return effective, nil
}
