package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizeRounds bounds how many layers of entity encoding plainText unwraps.
const maxSanitizeRounds = 8

// plainText strips markup from free text that is stored and rendered as plain text.
// Entities are decoded after each pass and the text is sanitized again until nothing
// changes, so encoded markup cannot survive as live tags. Input that is still changing
// after the last round is returned in its escaped form.
func plainText(policy *bluemonday.Policy, value string) string {
	current := value
	for i := 0; i < maxSanitizeRounds; i++ {
		next := html.UnescapeString(policy.Sanitize(current))
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	return strings.TrimSpace(policy.Sanitize(current))
}
