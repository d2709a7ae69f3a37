// Package pathutil confines client-supplied file paths to directories
// seatsim owns.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideAllowed is returned for paths that escape every allowed directory.
var ErrOutsideAllowed = errors.New("path is outside allowed directories")

// DefaultTraceDir returns ~/.seatsim/traces.
func DefaultTraceDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".seatsim", "traces"), nil
}

// RedactPath reduces a path to .../<parent>/<basename> for error messages.
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

// ResolveTracePath turns a client-supplied trace file name into an absolute
// path inside baseDir. Relative names are taken relative to baseDir.
// Symlinks in the existing part of the path, the file included, are resolved
// before the check, so a link inside baseDir cannot point the file elsewhere.
func ResolveTracePath(name, baseDir string) (string, error) {
	if name == "" {
		return "", errors.New("trace path is empty")
	}
	if strings.ContainsRune(name, '\x00') {
		return "", errors.New("trace path contains null byte")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(baseDir, name)
	}
	if err := ValidatePath(name, []string{baseDir}); err != nil {
		return "", err
	}
	return filepath.Clean(name), nil
}

// ValidatePath checks that path lies inside one of allowedDirs.
func ValidatePath(path string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return errors.New("no allowed directories configured")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", RedactPath(path), err)
	}
	resolved, err := resolveExisting(absPath)
	if err != nil {
		return err
	}

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(allowed)
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExisting(allowedAbs)
		if err != nil {
			continue
		}
		if resolved == allowedResolved || strings.HasPrefix(resolved, allowedResolved+string(os.PathSeparator)) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrOutsideAllowed, RedactPath(absPath))
}

// resolveExisting evaluates symlinks on the deepest existing prefix of path,
// the file itself included, and re-appends the part that does not exist yet.
// An entry that exists but cannot be resolved, such as a dangling symlink,
// is an error: creating through it would land wherever it points.
func resolveExisting(path string) (string, error) {
	dir := path
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if _, lerr := os.Lstat(dir); lerr == nil {
			return "", fmt.Errorf("cannot resolve %s: %w", RedactPath(dir), err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("cannot resolve %s", RedactPath(dir))
		}
		tail = append(tail, filepath.Base(dir))
		dir = parent
	}
}
