// Package security validates operator-supplied file paths before they are
// opened.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrForbiddenPath is returned for paths that cannot be opened safely.
var ErrForbiddenPath = errors.New("forbidden file path")

// shellChars are rejected outright; none appear in a legitimate config path.
var shellChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// ValidateFilePath cleans path, makes it absolute and resolves symlinks
// when the file exists.
func ValidateFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrForbiddenPath)
	}
	for _, c := range shellChars {
		if strings.Contains(path, c) {
			return "", fmt.Errorf("%w: %q contains %q", ErrForbiddenPath, path, c)
		}
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return resolved, nil
}

// ReadConfigFile reads a validated path whose extension is one of exts
// (compared case-insensitively, with the leading dot).
func ReadConfigFile(path string, exts ...string) ([]byte, error) {
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(filepath.Ext(clean))) {
		return nil, fmt.Errorf("%w: %s must have one of the extensions %v", ErrForbiddenPath, path, exts)
	}
	info, err := os.Stat(clean)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrForbiddenPath, path)
	}
	// #nosec G304 - path is validated above
	return os.ReadFile(clean)
}
