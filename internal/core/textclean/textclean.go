// Package textclean prepares analysis text for CSV cells and status table attributes
//
// Only bytes that break CSV consumers or jsonb columns are dropped: NUL, ASCII controls
// other than tab/LF/CR, DEL, C1 controls, invalid UTF-8 and U+FFFD left by an upstream decoder.
// Everything else passes through as extracted, including joiners, bidi marks and the
// original normalization form
package textclean

import (
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// stripper is stateless and safe to share; ill-formed bytes reach drop as utf8.RuneError
var stripper = runes.Remove(runes.Predicate(drop))

// Clean returns s without control and ill-formed bytes; clean input is returned as is
func Clean(s string) string {
	if firstDirty(s) == len(s) {
		return s
	}
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}

// All cleans every element of ss in place and returns it
func All(ss []string) []string {
	for i := range ss {
		ss[i] = Clean(ss[i])
	}
	return ss
}

// firstDirty returns the offset of the first byte Clean would drop, or len(s)
func firstDirty(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if drop(r) {
			return i
		}
		i += size
	}
	return len(s)
}

func drop(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 0x20, r == 0x7f:
		return true
	case r >= 0x80 && r <= 0x9f:
		return true
	}
	return r == utf8.RuneError
}
