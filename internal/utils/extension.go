package utils

import (
	"regexp"
	"strings"

	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
)

// DefaultMaxExtensionLength bounds what we accept as a file extension. Long
// descriptive filenames with an embedded dot ("Q3 report v1.2 final draft")
// would otherwise yield a garbage "extension" spanning half the name.
const DefaultMaxExtensionLength = 16

var extensionCharset = regexp.MustCompile(`^[a-z0-9]+(\.[a-z0-9]+)*$`)

// ExtensionFromFilename returns the lowercased remainder after the first dot
// when that remainder is a plausible extension: bounded length, alphanumeric
// segments, no path delimiters. An implausible remainder returns
// ErrImplausibleExtension so the caller can record the integrity condition
// instead of truncating silently.
func ExtensionFromFilename(filename string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxExtensionLength
	}
	idx := strings.Index(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", nil
	}
	remainder := strings.ToLower(filename[idx+1:])
	if strings.ContainsAny(remainder, `/\`) {
		return "", ingesterr.ErrImplausibleExtension
	}
	if len(remainder) > maxLen {
		return "", ingesterr.ErrImplausibleExtension
	}
	if !extensionCharset.MatchString(remainder) {
		return "", ingesterr.ErrImplausibleExtension
	}
	return remainder, nil
}

// LastExtension returns just the final dot-separated segment of a filename,
// lowercased, without plausibility checks. Used for image-type detection
// where only the trailing segment matters.
func LastExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
