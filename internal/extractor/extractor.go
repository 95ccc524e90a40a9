package extractor

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"trendpulse/internal/domain/entity"
)

const batchSize = 200

// trailingVerbs is the fixed Korean domain-action word set stripped from a
// canonical's trailing edge before collision comparison (spec §4.3 step 5).
var trailingVerbs = []string{
	"도입", "채택", "활용", "공개", "출시", "발표", "확대", "추진", "적용", "업데이트", "통합", "지원", "강화", "개선",
}

// regexFallbackPattern matches CamelCase identifiers and version-numbered
// identifiers of length ≥4, used only when the LLM yields zero keywords.
var regexFallbackPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]*)+|[A-Za-z]+-?\d+(?:\.\d+)?)\b`)

// Extractor turns a deduplicated item stream into the set of keywords that
// survive the LLM pass (or its regex fallback) and the deterministic
// filter/dedup chain.
type Extractor struct {
	client KeywordExtractorClient
	logger *slog.Logger
}

// New builds an Extractor over the given LLM client.
func New(client KeywordExtractorClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// candidate is the working representation of one merged keyword before
// filtering and slugging: a canonical (lowercased) form plus its display
// text and the set of aliases merged in across batches and the trailing-verb
// dedup pass.
type candidate struct {
	canonical string
	display   string
	aliases   map[string]struct{}
}

// Extract runs the full §4.3 pipeline: batch preparation, LLM extraction
// per batch, cross-batch merge, regex fallback on total failure,
// trailing-verb dedup, filters, and slug assignment.
func (e *Extractor) Extract(ctx context.Context, items []entity.Item) []entity.NormalizedKeyword {
	titles := prepareBatches(items)

	merged := make(map[string]*candidate)
	llmYielded := false
	for _, batch := range titles {
		extracted, err := e.client.ExtractKeywords(ctx, batch)
		if err != nil {
			e.logger.Warn("batch extraction failed", slog.Any("error", err))
			continue
		}
		if len(extracted) > 0 {
			llmYielded = true
		}
		mergeBatch(merged, extracted)
	}

	if !llmYielded {
		e.logger.Info("llm extraction yielded nothing, applying regex fallback")
		mergeBatch(merged, regexFallbackExtract(items))
	}

	merged = dedupTrailingVerbs(merged)

	return buildNormalizedKeywords(merged)
}

// prepareBatches trims and lower-cases titles for dedup, stable-sorts by
// tier ordinal ascending so higher-authority titles lead each batch, then
// splits into batches of at most 200 titles (spec §4.3 step 1).
func prepareBatches(items []entity.Item) [][]string {
	type titled struct {
		title string
		tier  entity.Tier
	}
	seen := make(map[string]struct{})
	var all []titled
	for _, it := range items {
		trimmed := strings.TrimSpace(it.Title)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		all = append(all, titled{title: trimmed, tier: it.Tier})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].tier < all[j].tier })

	var batches [][]string
	for i := 0; i < len(all); i += batchSize {
		end := i + batchSize
		if end > len(all) {
			end = len(all)
		}
		batch := make([]string, 0, end-i)
		for _, t := range all[i:end] {
			batch = append(batch, t.title)
		}
		batches = append(batches, batch)
	}
	return batches
}

// mergeBatch case-insensitively merges extracted keywords into the running
// candidate map, unioning aliases on collision (spec §4.3 step 3).
func mergeBatch(merged map[string]*candidate, extracted []ExtractedKeyword) {
	for _, ex := range extracted {
		canon := strings.ToLower(strings.TrimSpace(ex.Keyword))
		if canon == "" {
			continue
		}
		c, ok := merged[canon]
		if !ok {
			c = &candidate{canonical: canon, display: strings.TrimSpace(ex.Keyword), aliases: make(map[string]struct{})}
			merged[canon] = c
		}
		for _, alias := range ex.Aliases {
			alias = strings.TrimSpace(alias)
			if alias != "" {
				c.aliases[alias] = struct{}{}
			}
		}
	}
}

// regexFallbackExtract scans item titles for CamelCase and version-numbered
// identifiers when the LLM pass yields zero keywords (spec §4.3 step 4).
func regexFallbackExtract(items []entity.Item) []ExtractedKeyword {
	seen := make(map[string]struct{})
	var out []ExtractedKeyword
	for _, it := range items {
		for _, m := range regexFallbackPattern.FindAllString(it.Title, -1) {
			if len([]rune(m)) < 4 {
				continue
			}
			key := strings.ToLower(m)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ExtractedKeyword{Keyword: m})
		}
	}
	return out
}

// dedupTrailingVerbs strips a trailing domain-action word from each
// canonical before re-comparing, merging aliases of any resulting
// collisions (spec §4.3 step 5).
func dedupTrailingVerbs(merged map[string]*candidate) map[string]*candidate {
	out := make(map[string]*candidate, len(merged))
	for _, c := range merged {
		stripped := stripTrailingVerb(c.canonical)
		existing, ok := out[stripped]
		if !ok {
			out[stripped] = &candidate{canonical: stripped, display: c.display, aliases: c.aliases}
			continue
		}
		for a := range c.aliases {
			existing.aliases[a] = struct{}{}
		}
		if c.canonical != stripped {
			existing.aliases[c.display] = struct{}{}
		}
	}
	return out
}

func stripTrailingVerb(canonical string) string {
	for _, verb := range trailingVerbs {
		if strings.HasSuffix(canonical, verb) {
			trimmed := strings.TrimSpace(strings.TrimSuffix(canonical, verb))
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return canonical
}

// buildNormalizedKeywords applies the filter chain and assigns slugs to
// every surviving candidate.
func buildNormalizedKeywords(merged map[string]*candidate) []entity.NormalizedKeyword {
	out := make([]entity.NormalizedKeyword, 0, len(merged))
	for _, c := range merged {
		if isDropped(c.canonical) {
			continue
		}
		aliases := make([]string, 0, len(c.aliases))
		for a := range c.aliases {
			aliases = append(aliases, a)
		}
		sort.Strings(aliases)

		out = append(out, entity.NormalizedKeyword{
			KeywordID: slugify(c.canonical),
			Keyword:   c.display,
			Aliases:   aliases,
			Candidate: entity.NewKeywordCandidate(c.display),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeywordID < out[j].KeywordID })
	return out
}
