package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// OutputFormats lists the supported diagram output formats.
var OutputFormats = []string{"svg", "html", "dot"}

// ValidateFormat validates a diagram output format.
func ValidateFormat(format string) error {
	for _, f := range OutputFormats {
		if format == f {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unknown output format %q (supported: %s)",
		format, strings.Join(OutputFormats, ", "))
}

// ValidatePath validates a client-supplied relative path for safety.
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

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// resourceAddressRegex matches Terraform resource addresses, optionally
// prefixed with one or more module path segments.
var resourceAddressRegex = regexp.MustCompile(
	`^(module\.[A-Za-z0-9_-]+\.)*[a-z][a-z0-9_]*\.[A-Za-z0-9_-]+(\[[^\]]*\])?$`)

// ValidateResourceAddress validates a Terraform resource address such as
// aws_vpc.main or module.network.aws_subnet.private[0].
func ValidateResourceAddress(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidAddress, "resource address cannot be empty")
	}

	if len(addr) > 256 {
		return New(ErrCodeInvalidAddress, "resource address too long (max 256 characters)")
	}

	for _, r := range addr {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidAddress, "resource address contains invalid control characters")
		}
	}

	if !resourceAddressRegex.MatchString(addr) {
		return New(ErrCodeInvalidAddress, "invalid resource address: %q", addr)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http, https, or redis).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	for _, scheme := range []string{"http://", "https://", "redis://", "rediss://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use http, https, or redis scheme")
}
