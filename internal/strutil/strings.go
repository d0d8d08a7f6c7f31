// Package strutil carries string cleanup helpers for fixed-width DBF
// fields, which come space-padded from the bank archives.
package strutil

import (
	"strings"
	"unicode"
)

// CleanSpaces trims the string and collapses every inner whitespace run
// into a single space. CleanSpaces("ПАО  БАНК ") returns "ПАО БАНК".
func CleanSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}

		if space {
			b.WriteByte(' ')
			space = false
		}

		b.WriteRune(r)
	}

	return b.String()
}
