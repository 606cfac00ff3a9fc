package services

import (
	"strings"
	"unicode/utf8"
)

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// escapeFilterLiteral quotes a value for an OData string literal.
func escapeFilterLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
