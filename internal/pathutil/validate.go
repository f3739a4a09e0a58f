// Package pathutil confines client-supplied file names to a directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/runs/spikes.gz" becomes ".../runs/spikes.gz".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Within resolves name against root and returns the absolute path, failing
// unless the result stays inside root once symlinks are followed. name may be
// relative to root or absolute; the file itself need not exist.
func Within(name, root string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path validation failed: path is empty")
	}
	if root == "" {
		return "", fmt.Errorf("path validation failed: no root directory configured")
	}
	if strings.ContainsRune(name, '\x00') {
		return "", fmt.Errorf("path validation failed: path contains null byte")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve root: %w", err)
	}
	rootResolved, err := resolveExisting(rootAbs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve root: %w", err)
	}

	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(rootAbs, target)
	}
	target = filepath.Clean(target)

	// The file may not exist yet; resolve its directory.
	dir, err := resolveExisting(filepath.Dir(target))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(target))

	if resolved == rootResolved || !isSubpath(resolved, rootResolved) {
		return "", fmt.Errorf("path validation failed: %q is outside %s", RedactPath(resolved), RedactPath(rootResolved))
	}
	return resolved, nil
}

// resolveExisting follows symlinks on the deepest existing ancestor of path
// and re-appends the missing tail.
func resolveExisting(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(path)
	if parent == path {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(path))
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// isSubpath reports whether path is base or lies below it.
func isSubpath(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+string(os.PathSeparator))
}
