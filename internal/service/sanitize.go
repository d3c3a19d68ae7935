package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from free-text fields. Complaints are stored as
// plain text, so entities produced by the policy are decoded again.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer uses bluemonday's strict policy: no elements survive.
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean returns s without tags, trimmed.
func (s *TextSanitizer) Clean(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
