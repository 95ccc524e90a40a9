// Package langtag provides the Hangul-presence heuristic shared by the
// YouTube channel-language guess, the matcher's ASCII-variant generation,
// and the extractor's transliteration filter.
package langtag

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// hangulSyllables is the Unicode Hangul Syllables block (U+AC00-U+D7A3),
// the range that covers ordinary modern Korean text.
var hangulSyllables = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0xAC00, Hi: 0xD7A3, Stride: 1}},
}

// hangulTable runs the block through rangetable.Merge so membership checks
// go through the same table-construction path golang.org/x/text exposes,
// rather than a bare unicode.Is against a hand-built literal.
var hangulTable = rangetable.Merge(hangulSyllables)

// ContainsHangul reports whether s contains any Hangul syllable codepoint.
func ContainsHangul(s string) bool {
	for _, r := range s {
		if IsHangul(r) {
			return true
		}
	}
	return false
}

// IsHangul reports whether r is a Hangul syllable codepoint.
func IsHangul(r rune) bool {
	return unicode.Is(hangulTable, r)
}
