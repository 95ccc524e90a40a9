package source

import (
	"net/url"
	"strings"
	"time"

	"trendpulse/internal/pkg/langtag"
)

// sourceDomain derives the lowercased, www.-stripped host from a URL,
// matching the Item.sourceDomain contract in spec §3.
func sourceDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// windowCutoff returns the earliest PublishedAt an Item may carry to still
// be inside the adapter's lookback window.
func windowCutoff(now time.Time, windowHours int) time.Time {
	return now.Add(-time.Duration(windowHours) * time.Hour)
}

// hasHangul reports whether s contains any Hangul syllable codepoint,
// used by the YouTube-channel adapter's language heuristic (channel name
// containing Hangul implies Korean).
func hasHangul(s string) bool {
	return langtag.ContainsHangul(s)
}
