package errors

import (
	"strings"
	"unicode"
)

// hashLength is the length of a hex-encoded SHA-256 digest.
const hashLength = 64

// ValidateHash checks that s looks like a block hash: 64 lowercase hex digits.
func ValidateHash(s string) error {
	if s == "" {
		return New(ErrCodeInvalidHash, "hash cannot be empty")
	}
	if len(s) != hashLength {
		return New(ErrCodeInvalidHash, "hash must be %d characters, got %d", hashLength, len(s))
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return New(ErrCodeInvalidHash, "hash contains non-hex character %q", r)
		}
	}
	return nil
}

// ValidateBranchName validates a display name for a branch.
//
// Names are rendered into SVG, DOT and terminal output, so control
// characters are rejected and the length is bounded.
func ValidateBranchName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "branch name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "branch name too long (max 64 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "branch name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates an output or input file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
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

	return nil
}
