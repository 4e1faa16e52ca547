package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PathSegment converts value into a lowercase single path segment. ASCII
// letters, digits, dots, hyphens, and underscores survive; every other rune
// becomes an underscore. Leading dots are stripped so the result can never be
// "." or "..". Empty results return "".
func PathSegment(value string) string {
	value = norm.NFKC.String(strings.TrimSpace(value))
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
