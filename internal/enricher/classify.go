package enricher

import (
	"net/url"
	"regexp"
	"strings"

	"trendpulse/internal/domain/entity"
)

// socialHosts are hosts classified as "social" regardless of search group.
var socialHosts = map[string]struct{}{
	"twitter.com":   {},
	"x.com":         {},
	"reddit.com":    {},
	"news.ycombinator.com": {},
	"www.threads.net": {},
	"mastodon.social": {},
}

// dataHosts are hosts classified as "data" regardless of search group.
var dataHosts = map[string]struct{}{
	"github.com":     {},
	"arxiv.org":      {},
	"huggingface.co": {},
	"kaggle.com":     {},
	"paperswithcode.com": {},
}

var academicOrVideoPattern = regexp.MustCompile(`(?i)arxiv\.org/abs|youtube\.com/watch|youtu\.be/|doi\.org/`)

// classifySource maps one flattened search result to {news, social, data}
// per spec §4.6 step 5's classifier rules.
func classifySource(r SearchResult) entity.PrimaryType {
	switch r.Type {
	case "video", "image":
		return entity.PrimaryTypeData
	}

	host := hostOf(r.URL)
	if _, ok := socialHosts[host]; ok {
		return entity.PrimaryTypeSocial
	}
	if _, ok := dataHosts[host]; ok {
		return entity.PrimaryTypeData
	}
	if academicOrVideoPattern.MatchString(r.URL) || academicOrVideoPattern.MatchString(r.Title) {
		return entity.PrimaryTypeData
	}
	return entity.PrimaryTypeNews
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

// weightForPosition returns the vote weight for a source at 1-indexed
// position pos, per spec §4.6 step 5: positions 1-3 weight 3, 4-8 weight 2,
// 9+ weight 1.
func weightForPosition(pos int) int {
	switch {
	case pos <= 3:
		return 3
	case pos <= 8:
		return 2
	default:
		return 1
	}
}

// fixedTypeOrder is the tie-break order when vote totals are equal.
var fixedTypeOrder = []entity.PrimaryType{entity.PrimaryTypeNews, entity.PrimaryTypeSocial, entity.PrimaryTypeData}

// votePrimaryType determines the dominant source type by weighted vote
// across results in position order, tying first to the first source's own
// category and then to the fixed news→social→data order.
func votePrimaryType(results []SearchResult) entity.PrimaryType {
	if len(results) == 0 {
		return entity.PrimaryTypeNews
	}

	votes := map[entity.PrimaryType]int{}
	for i, r := range results {
		votes[classifySource(r)] += weightForPosition(i + 1)
	}

	firstCategory := classifySource(results[0])

	best := fixedTypeOrder[0]
	bestVotes := -1
	for _, candidate := range orderedByFirstThenFixed(firstCategory) {
		v := votes[candidate]
		if v > bestVotes {
			bestVotes = v
			best = candidate
		}
	}
	return best
}

// ClassifyPrimaryTypeFromSources recomputes the §4.6 step 5 primary-type
// vote over already-persisted SourceRows, preserving their stored order as
// the position ordering. Used by the reuse cache, which copies SourceRows
// forward without re-running search.
func ClassifyPrimaryTypeFromSources(sources []entity.SourceRow) entity.PrimaryType {
	results := make([]SearchResult, len(sources))
	for i, s := range sources {
		results[i] = SearchResult{Type: s.Type, Title: s.Title, URL: s.URL}
	}
	return votePrimaryType(results)
}

// orderedByFirstThenFixed puts first ahead of the fixed tie-break order, so
// a strict ">" scan over it resolves ties in favor of the first source's
// category, then news→social→data.
func orderedByFirstThenFixed(first entity.PrimaryType) []entity.PrimaryType {
	out := []entity.PrimaryType{first}
	for _, t := range fixedTypeOrder {
		if t != first {
			out = append(out, t)
		}
	}
	return out
}
