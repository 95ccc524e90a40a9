// Package matcher scans collected items against extracted keywords to
// compute support metadata: count, supporting domains, latest timestamp,
// and best tier, per spec §4.4.
package matcher

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/width"

	"trendpulse/internal/domain/entity"
)

// shortStopwords mirrors the extractor's fixed stopword set: English
// conjunctions and Korean particles discarded from multi-word phrase
// matching.
var shortStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "of": {}, "a": {}, "an": {}, "to": {},
	"는": {}, "은": {}, "이": {}, "가": {}, "을": {}, "를": {}, "의": {}, "에": {}, "와": {}, "과": {},
}

// Match scans every item once per keyword, accumulating support into each
// keyword's Candidate, then drops keywords whose count is still zero.
func Match(keywords []entity.NormalizedKeyword, items []entity.Item) []entity.NormalizedKeyword {
	haystacks := make([]string, len(items))
	for i, it := range items {
		haystacks[i] = foldWidth(strings.ToLower(it.Title + " " + it.Summary))
	}

	out := make([]entity.NormalizedKeyword, 0, len(keywords))
	for _, kw := range keywords {
		matcher := buildMatcher(kw.Keyword)
		for i, hay := range haystacks {
			if matcher(hay) {
				kw.Candidate.AddSupport(items[i])
			}
		}
		if kw.Candidate.Count > 0 {
			out = append(out, kw)
		}
	}
	return out
}

// MatchConcurrent is equivalent to Match but scores each keyword's support
// in its own goroutine, for callers with large keyword sets where the
// per-keyword scan dominates wall-clock.
func MatchConcurrent(keywords []entity.NormalizedKeyword, items []entity.Item) []entity.NormalizedKeyword {
	haystacks := make([]string, len(items))
	for i, it := range items {
		haystacks[i] = foldWidth(strings.ToLower(it.Title + " " + it.Summary))
	}

	var wg sync.WaitGroup
	wg.Add(len(keywords))
	for idx := range keywords {
		go func(i int) {
			defer wg.Done()
			matcher := buildMatcher(keywords[i].Keyword)
			for j, hay := range haystacks {
				if matcher(hay) {
					keywords[i].Candidate.AddSupport(items[j])
				}
			}
		}(idx)
	}
	wg.Wait()

	out := make([]entity.NormalizedKeyword, 0, len(keywords))
	for _, kw := range keywords {
		if kw.Candidate.Count > 0 {
			out = append(out, kw)
		}
	}
	return out
}

// buildMatcher returns a predicate over a lowercased "title summary"
// haystack, selecting the short-token / single-word / multi-word strategy
// per spec §4.4, OR'd against the ASCII-variant form for mixed-Hangul
// keywords.
func buildMatcher(keyword string) func(haystack string) bool {
	lower := foldWidth(strings.ToLower(strings.TrimSpace(keyword)))
	tokens := strings.Fields(lower)
	primary := singleMatcher(lower, tokens)

	variant := asciiVariant(lower)
	if variant == "" || variant == lower {
		return primary
	}
	variantTokens := strings.Fields(variant)
	secondary := singleMatcher(variant, variantTokens)
	return func(haystack string) bool {
		return primary(haystack) || secondary(haystack)
	}
}

func singleMatcher(canonical string, tokens []string) func(string) bool {
	switch {
	case len(tokens) <= 1 && len([]rune(canonical)) <= 2:
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(canonical) + `\b`)
		return func(haystack string) bool { return pattern.MatchString(haystack) }
	case len(tokens) <= 1:
		return func(haystack string) bool { return strings.Contains(haystack, canonical) }
	default:
		significant := significantTokens(tokens)
		if len(significant) == 0 {
			return func(string) bool { return false }
		}
		return func(haystack string) bool {
			for _, tok := range significant {
				if !strings.Contains(haystack, tok) {
					return false
				}
			}
			return true
		}
	}
}

func significantTokens(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if len([]rune(t)) < 3 {
			continue
		}
		if _, stop := shortStopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}
