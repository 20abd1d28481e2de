package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxNameLength bounds slice names and chart labels.
const maxNameLength = 256

// ValidateName validates a slice name or chart label.
// Names end up in SVG titles, X3D attributes and DOT labels, so the rules
// are conservative:
//   - Maximum length of 256 characters
//   - No control characters (newlines, tabs, null bytes)
//
// Empty names are allowed; aggregation buckets can be unlabeled.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidDocument, "name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDocument, "name %q contains invalid control characters", name)
		}
	}
	return nil
}

// ValidateSize rejects sizes the percentage math cannot consume.
// Negative sizes are accepted (the magnitude is used); NaN and infinities
// are not.
func ValidateSize(name string, size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return New(ErrCodeInvalidDocument, "slice %q has non-finite size %v", name, size)
	}
	return nil
}

// ValidatePath validates a user supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..) when relative is true
func ValidatePath(path string, relative bool) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if relative {
		if strings.HasPrefix(path, "/") {
			return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
		}
		if strings.Contains(path, "..") {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
