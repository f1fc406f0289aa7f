package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// expandLeft moves a byte offset left by up to n runes.
func expandLeft(text string, offset, n int) int {
	for i := 0; i < n && offset > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:offset])
		offset -= size
	}
	return offset
}

// expandRight moves a byte offset right by up to n runes.
func expandRight(text string, offset, n int) int {
	for i := 0; i < n && offset < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}
	return offset
}

// findToken locates token in text as a standalone word. Go's regexp \b only
// understands ASCII word characters, so Cyrillic boundaries are checked by
// hand. Both arguments must already be lowercased.
func findToken(text, token string) int {
	from := 0
	for {
		idx := strings.Index(text[from:], token)
		if idx < 0 {
			return -1
		}
		idx += from
		if wordBoundary(text, idx, idx+len(token)) {
			return idx
		}
		from = idx + len(token)
	}
}

func wordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// overlaps reports whether [start, end) intersects any of the given spans.
func overlaps(start, end int, spans [][2]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
