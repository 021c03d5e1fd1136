package restapi

import (
	"strings"
	"unicode/utf8"
)

const titleMaxLen = 50

// deriveTitle normalizes whitespace in text and truncates it to 50
// characters with an ellipsis when longer, for a titleless conversation's
// first persisted user message.
func deriveTitle(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(normalized) <= titleMaxLen {
		return normalized
	}
	runes := []rune(normalized)
	return string(runes[:titleMaxLen]) + "…"
}
