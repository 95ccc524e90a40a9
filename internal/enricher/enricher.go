package enricher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/infra/summarizer"
)

// SourceCandidate is one flattened, mutable enrichment source attached to a
// keyword while it moves through the pipeline (search → image backfill →
// translation); Finalize projects it into a persistence-ready SourceRow.
type SourceCandidate struct {
	Type        string
	Title       string
	URL         string
	Domain      string
	PublishedAt *time.Time
	Snippet     string
	ImageURL    string
	TitleKo     string
	TitleEn     string

	// fullContent holds a readability-extracted article body, used only to
	// build the summarizer's input text. It is never persisted: Finalize
	// does not read it, so SourceRow.Snippet always stays the short
	// search-result excerpt.
	fullContent string
}

// Finalize converts a SourceCandidate into the persistence-layer SourceRow
// shape for the given snapshot/keyword.
func (c SourceCandidate) Finalize(snapshotID, keywordID string) entity.SourceRow {
	return entity.SourceRow{
		SnapshotID:     snapshotID,
		KeywordID:      keywordID,
		Type:           c.Type,
		Title:          c.Title,
		URL:            c.URL,
		Domain:         c.Domain,
		PublishedAtUTC: c.PublishedAt,
		Snippet:        c.Snippet,
		ImageURL:       c.ImageURL,
		TitleKo:        c.TitleKo,
		TitleEn:        c.TitleEn,
	}
}

// Result is the full enrichment outcome for one keyword: its sources, the
// bilingual summary, and its derived primary type / top source.
type Result struct {
	Sources        []SourceCandidate
	SummaryShortKo string
	SummaryShortEn string
	PrimaryType    entity.PrimaryType
	TopSource      entity.TopSource

	// SearchCount is the number of results the external search call
	// returned for this keyword, fed to the search-count repository.
	SearchCount int
}

// Enricher composes external search, OG-image backfill, bilingual
// summarization and title translation into one per-keyword enrichment
// pass, bounded by a caller-supplied worker pool (spec §4.6, §5 Phase 6).
type Enricher struct {
	search              SearchClient
	images              *ogImageScraper
	content             ContentFetcher
	summarizerKo        summarizer.Summarizer
	enableEnSummary     bool
	translator          TitleTranslator
	summaryContextLimit int
	logger              *slog.Logger
}

// New builds an Enricher. search may be a no-credential client that always
// returns nil (Tavily key absent); summarizerKo is the shared Korean/English
// capable summarizer; translator may be nil, in which case title
// translation is skipped and originals are used. content may be nil, in
// which case the full-content fetch step is skipped and summaries are
// built from search snippets alone.
func New(search SearchClient, summarizerKo summarizer.Summarizer, translator TitleTranslator, content ContentFetcher, enableEnSummary bool, summaryContextLimit int, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if summaryContextLimit <= 0 {
		summaryContextLimit = 5
	}
	return &Enricher{
		search:              search,
		images:              newOGImageScraper(logger),
		content:             content,
		summarizerKo:        summarizerKo,
		enableEnSummary:     enableEnSummary,
		translator:          translator,
		summaryContextLimit: summaryContextLimit,
		logger:              logger,
	}
}

// Enrich runs the full five-step pipeline for one keyword's display text.
// Every step degrades to a safe default on failure rather than propagating
// an error, matching spec §7's enrichment-failure taxonomy.
func (e *Enricher) Enrich(ctx context.Context, keyword string) Result {
	results := e.search.Search(ctx, keyword)
	sortByScoreDesc(results)
	candidates := toCandidates(results)

	ptrs := make([]*SourceCandidate, len(candidates))
	for i := range candidates {
		ptrs[i] = &candidates[i]
	}
	e.images.backfillImages(ctx, ptrs)
	e.fetchFullContent(ctx, ptrs)

	summaryKo, summaryEn := e.summarize(ctx, keyword, candidates)
	e.translateTitles(ctx, candidates)

	primaryType := votePrimaryType(results)
	top := topSourceOf(candidates)

	return Result{
		Sources:        candidates,
		SummaryShortKo: summaryKo,
		SummaryShortEn: summaryEn,
		PrimaryType:    primaryType,
		TopSource:      top,
		SearchCount:    len(results),
	}
}

func toCandidates(results []SearchResult) []SourceCandidate {
	out := make([]SourceCandidate, 0, len(results))
	for _, r := range results {
		out = append(out, SourceCandidate{
			Type:    r.Type,
			Title:   r.Title,
			URL:     r.URL,
			Domain:  hostOf(r.URL),
			Snippet: truncateSnippet(r.Content),
		})
	}
	return out
}

func truncateSnippet(s string) string {
	r := []rune(s)
	if len(r) <= entity.MaxSummaryLen {
		return s
	}
	return string(r[:entity.MaxSummaryLen])
}

// summarize builds the summarizer input from the first N news items (or
// first N of all sources if there are no news items) and runs Korean and,
// if enabled, English summarization in parallel. A failing call substitutes
// a templated sentence so the keyword is never left without a summary.
func (e *Enricher) summarize(ctx context.Context, keyword string, candidates []SourceCandidate) (ko, en string) {
	input := summaryInputText(keyword, candidates, e.summaryContextLimit)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		text, err := e.summarizerKo.SummarizeWithLimit(ctx, input, entity.LangKo, 220)
		if err != nil {
			e.logger.Warn("korean summary failed, using fallback", slog.String("keyword", keyword), slog.Any("error", err))
			ko = fallbackSummary(keyword, entity.LangKo)
			return
		}
		ko = text
	}()

	if e.enableEnSummary {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := e.summarizerKo.SummarizeWithLimit(ctx, input, entity.LangEn, 220)
			if err != nil {
				e.logger.Warn("english summary failed, using fallback", slog.String("keyword", keyword), slog.Any("error", err))
				en = fallbackSummary(keyword, entity.LangEn)
				return
			}
			en = text
		}()
	}

	wg.Wait()
	return ko, en
}

// fullContentThreshold is the search-snippet length below which a news
// candidate's full article body is fetched for summarization, mirroring
// the teacher's content-fetch-on-short-snippet heuristic.
const fullContentThreshold = 280

// fetchFullContent backfills candidates[i].fullContent for "news" items
// whose search snippet is too short to summarize well. Never propagates an
// error: a failed fetch just leaves the snippet as the summarizer input.
func (e *Enricher) fetchFullContent(ctx context.Context, candidates []*SourceCandidate) {
	if e.content == nil {
		return
	}
	var wg sync.WaitGroup
	for _, c := range candidates {
		if c.Type != "news" || len(c.Snippet) >= fullContentThreshold || c.URL == "" {
			continue
		}
		wg.Add(1)
		go func(c *SourceCandidate) {
			defer wg.Done()
			body, err := e.content.Fetch(ctx, c.URL)
			if err != nil || body == "" {
				return
			}
			c.fullContent = body
		}(c)
	}
	wg.Wait()
}

func summaryInputText(keyword string, candidates []SourceCandidate, limit int) string {
	var news []SourceCandidate
	for _, c := range candidates {
		if c.Type == "news" {
			news = append(news, c)
		}
	}
	pool := news
	if len(pool) == 0 {
		pool = candidates
	}
	if len(pool) > limit {
		pool = pool[:limit]
	}

	text := keyword
	for _, c := range pool {
		text += "\n" + c.Title
		switch {
		case c.fullContent != "":
			text += ": " + truncateSnippet(c.fullContent)
		case c.Snippet != "":
			text += ": " + c.Snippet
		}
	}
	return text
}

func fallbackSummary(keyword string, lang entity.Lang) string {
	if lang == entity.LangKo {
		return fmt.Sprintf("%s 관련 소식이 업데이트되었습니다.", keyword)
	}
	return fmt.Sprintf("Updates related to %s.", keyword)
}

// translateTitles batch-translates the titles of the first 8 sources per
// type into Korean, preserving proper nouns; on any failure (including a
// line-count mismatch) the originals are kept as TitleKo.
func (e *Enricher) translateTitles(ctx context.Context, candidates []SourceCandidate) {
	if e.translator == nil {
		for i := range candidates {
			candidates[i].TitleKo = candidates[i].Title
		}
		return
	}

	byType := map[string][]int{}
	for i, c := range candidates {
		if len(byType[c.Type]) < 8 {
			byType[c.Type] = append(byType[c.Type], i)
		}
	}

	for _, idxs := range byType {
		titles := make([]string, len(idxs))
		for j, idx := range idxs {
			titles[j] = candidates[idx].Title
		}
		translated, err := e.translator.TranslateTitles(ctx, titles)
		if err != nil || len(translated) != len(idxs) {
			for _, idx := range idxs {
				candidates[idx].TitleKo = candidates[idx].Title
			}
			continue
		}
		for j, idx := range idxs {
			candidates[idx].TitleKo = translated[j]
		}
	}

	for i := range candidates {
		if candidates[i].TitleKo == "" {
			candidates[i].TitleKo = candidates[i].Title
		}
	}
}

// topSourceOf projects the first candidate (position-1, the search API's
// own relevance order) as the keyword's top-source summary row.
func topSourceOf(candidates []SourceCandidate) entity.TopSource {
	if len(candidates) == 0 {
		return entity.TopSource{}
	}
	first := candidates[0]
	image := first.ImageURL
	if image == "" {
		image = entity.DefaultSentinelImage
	}
	return entity.TopSource{
		Title:    first.Title,
		URL:      first.URL,
		Domain:   first.Domain,
		ImageURL: image,
	}
}

// sortByScoreDesc orders search results by relevance score before the
// position-based classifier vote and the first-N summarization/translation
// windows are applied.
func sortByScoreDesc(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
