package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds identifiers that end up in cache keys and store filters.
const maxIDLength = 256

// ValidateCategoryID validates a category identifier.
//
// The rules are conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateCategoryID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidCategory, "category id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidCategory, "category id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCategory, "category id contains invalid control characters")
		}
	}
	return nil
}

// ValidateTimelineID validates the identifier a timeline is stored under.
// Identifiers are used as store filters, so path-like and dotted names are
// rejected.
func ValidateTimelineID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "timeline id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "timeline id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "timeline id contains invalid control characters")
		}
	}
	if strings.ContainsAny(id, "/\\$") || strings.HasPrefix(id, ".") {
		return New(ErrCodeInvalidInput, "timeline id contains invalid characters")
	}
	return nil
}

// ValidateBucketID validates a ruler bucket identifier of the form
// "scale-key". It checks the shape only; the scale name and the key are
// resolved by the zoom resolver.
func ValidateBucketID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidBucket, "bucket id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidBucket, "bucket id too long (max %d characters)", maxIDLength)
	}
	name, key, ok := strings.Cut(id, "-")
	if !ok || name == "" || key == "" {
		return New(ErrCodeInvalidBucket, "bucket id %q must have the form scale-key", id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidBucket, "bucket id contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
