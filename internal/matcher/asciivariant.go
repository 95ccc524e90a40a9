package matcher

import (
	"strings"

	"golang.org/x/text/width"

	"trendpulse/internal/pkg/langtag"
)

// foldWidth normalizes fullwidth/halfwidth Unicode forms (common in
// titles sourced from Japanese/Korean-authored feeds, e.g. "ＡＩ") to
// their canonical narrow form, so a fullwidth occurrence in a haystack
// still matches an ordinary ASCII keyword.
func foldWidth(s string) string {
	return width.Fold.String(s)
}

// asciiVariant strips Hangul runs from a mixed-script keyword and
// normalizes the remaining separators, so a partially-transliterated form
// (e.g. "클로드 Code") can still match a purely-English title ("Code").
// Returns "" if the keyword contains no Hangul at all.
func asciiVariant(s string) string {
	hasHangul := false
	var b strings.Builder
	prevSpace := true
	for _, r := range s {
		if langtag.IsHangul(r) {
			hasHangul = true
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = r == ' '
	}
	if !hasHangul {
		return ""
	}
	return strings.TrimSpace(collapseSpaces(b.String()))
}

func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
