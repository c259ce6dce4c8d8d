package utils

import (
	"regexp"
	"strings"
)

var subjectPrefixRegex = regexp.MustCompile(`(?i)^(re|fwd|fw|aw|sv|antw)(\[\d+\])?:\s*`)

// NormalizeSubject case-folds a subject and strips reply/forward prefixes
// recursively from the front ("Re: Fwd: Re: X" -> "x").
func NormalizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for subjectPrefixRegex.MatchString(subject) {
		subject = subjectPrefixRegex.ReplaceAllString(subject, "")
		subject = strings.TrimSpace(subject)
	}
	return strings.ToLower(subject)
}

// NormalizeMessageID strips whitespace and angle brackets from a Message-ID
// header value.
func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}

// ParseReferences splits a References header into normalized message ids.
// Handles both whitespace and comma separated lists.
func ParseReferences(references string) []string {
	if strings.TrimSpace(references) == "" {
		return []string{}
	}
	var parts []string
	if strings.Contains(references, ",") {
		parts = strings.Split(references, ",")
	} else {
		parts = strings.Fields(references)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		id := NormalizeMessageID(p)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
