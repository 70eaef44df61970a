package trie

import (
	"strings"
	"unicode/utf8"
)

// Normalize returns the canonical form of s used for indexing and search:
// lower-cased, trimmed, with whitespace runs collapsed to a single space.
// Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
