package utils

import (
	"path"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips path traversal and control characters from an
// attachment filename. Returns fallback when nothing usable remains.
func SanitizeFilename(filename, fallback string) string {
	if filename == "" {
		return fallback
	}
	name := strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/")
	name = path.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return fallback
	}
	return name
}
