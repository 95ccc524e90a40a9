package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"trendpulse/internal/pkg/langtag"
)

// stripDiacritics removes combining marks left over after NFD
// decomposition (e.g. "café" -> "cafe"), so a transliterated Latin
// keyword still produces a readable ASCII slug instead of falling
// through to the rolling-hash fallback.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldDiacritics(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		return s
	}
	return out
}

var slugPunctuation = regexp.MustCompile(`[^a-z0-9_]+`)

// slugify derives a keywordId from a canonical keyword string. ASCII input
// collapses punctuation to underscores and keeps [A-Za-z0-9_]; Hangul-bearing
// input (or anything that fails the ASCII path) falls back to a 32-bit
// rolling hash rendered as kw_<base36>, per spec §4.3 step 7.
func slugify(s string) string {
	if !langtag.ContainsHangul(s) {
		if slug, ok := asciiSlug(s); ok {
			return slug
		}
	}
	return "kw_" + strconv.FormatUint(uint64(rollingHash(s)), 36)
}

func asciiSlug(s string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(foldDiacritics(s)))
	slug := slugPunctuation.ReplaceAllString(lower, "_")
	slug = strings.Trim(slug, "_")
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	alnum := 0
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	if alnum < 2 {
		return "", false
	}
	return slug, true
}

// rollingHash implements the deterministic 32-bit rolling hash named in
// spec §4.3 step 7: h = (h<<5 - h + codepoint) mod 2^32, applied over the
// canonical string's runes.
func rollingHash(s string) uint32 {
	var h uint32
	for _, r := range s {
		h = (h << 5) - h + uint32(r)
	}
	return h
}
