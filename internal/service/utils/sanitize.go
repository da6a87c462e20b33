package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Message bodies and subjects are plain text. Any markup a client smuggles in
// is stripped, not escaped, so stored content stays renderer-agnostic.
var textPolicy = bluemonday.StrictPolicy()

func SanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

func SanitizeSubject(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
