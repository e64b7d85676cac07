package entities

import (
	"golang.org/x/text/unicode/norm"
)

// Normalize returns s in Unicode NFC so character ceilings count what a
// reader sees rather than combining sequences.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// Truncate normalizes s and cuts it to at most max characters. The second
// result reports whether anything was cut.
func Truncate(s string, max int) (string, bool) {
	s = Normalize(s)
	if max <= 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}

// Length returns the character count of s after normalization.
func Length(s string) int {
	return len([]rune(Normalize(s)))
}
