package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxStyleNameLength bounds names accepted by ValidateStyleName.
const maxStyleNameLength = 256

// ValidateStyleName validates a style name given on the command line before
// it is joined onto the styles directory.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (..)
//   - No backslashes
//   - No absolute paths
//   - Maximum length of 256 characters
func ValidateStyleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "style name cannot be empty")
	}

	if len(name) > maxStyleNameLength {
		return New(ErrCodeInvalidInput, "style name too long (max %d characters)", maxStyleNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "style name contains invalid control characters")
		}
	}

	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidPath, "style name must be relative: %q", name)
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPath, "style name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateDir checks that a configured directory path is usable as a flag
// value. It does not touch the filesystem.
func ValidateDir(kind, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return New(ErrCodeInvalidPath, "%s directory cannot be empty", kind)
	}
	for _, r := range dir {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "%s directory contains invalid characters", kind)
		}
	}
	return nil
}
