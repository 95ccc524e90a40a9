// Package reusecache implements the pipeline's cross-snapshot reuse cache
// (spec §4.7): before enriching a keyword, look up its latest persisted row
// across the last few snapshots and, if it carries at least one source,
// copy its summary and sources forward instead of re-running external
// search and summarization.
package reusecache

import (
	"context"
	"log/slog"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/enricher"
	"trendpulse/internal/repository"
)

// DefaultWindow is M, the number of most recent snapshots searched for a
// reusable row (default 4, approximately 48h under 4x/day scheduling).
const DefaultWindow = 4

// Lookup is the reuse cache. Nil logger defaults to slog.Default().
type Lookup struct {
	snapshots repository.SnapshotRepository
	keywords  repository.KeywordRepository
	sources   repository.SourceRepository
	window    int
	logger    *slog.Logger
}

func New(snapshots repository.SnapshotRepository, keywords repository.KeywordRepository, sources repository.SourceRepository, window int, logger *slog.Logger) *Lookup {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{snapshots: snapshots, keywords: keywords, sources: sources, window: window, logger: logger}
}

// Result is a reusable keyword hit: the carried-forward enrichment fields
// plus the cached sources to re-insert under the new snapshot/keyword IDs.
type Result struct {
	SummaryShortKo string
	SummaryShortEn string
	PrimaryType    entity.PrimaryType
	TopSource      entity.TopSource
	cachedSources  []entity.SourceRow
}

// SourceRowsFor clones the cached sources under a new (snapshotID, keywordID)
// pair, ready for SourceRepository.InsertMany.
func (r *Result) SourceRowsFor(snapshotID, keywordID string) []entity.SourceRow {
	rows := make([]entity.SourceRow, len(r.cachedSources))
	for i, s := range r.cachedSources {
		rows[i] = s
		rows[i].ID = 0
		rows[i].SnapshotID = snapshotID
		rows[i].KeywordID = keywordID
	}
	return rows
}

// Find looks up the latest persisted row sharing keywordID across the
// lookback window (same-canonical-ID reuse only, never text/semantic
// matching). Returns (nil, false, nil) when nothing reusable exists — the
// caller should fall through to full enrichment. A non-nil error means the
// lookup itself failed (treated by the caller the same as a cache miss).
func (l *Lookup) Find(ctx context.Context, keywordID string) (*Result, bool, error) {
	snapshotIDs, err := l.snapshots.RecentIDs(ctx, l.window)
	if err != nil {
		return nil, false, err
	}
	if len(snapshotIDs) == 0 {
		return nil, false, nil
	}

	row, err := l.keywords.FindLatestByKeywordID(ctx, keywordID, snapshotIDs)
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		return nil, false, nil
	}

	cached, err := l.sources.ListByKeyword(ctx, row.SnapshotID, row.KeywordID)
	if err != nil {
		return nil, false, err
	}
	if len(cached) == 0 {
		l.logger.Debug("reuse cache miss: no cached sources", "keyword_id", keywordID, "snapshot_id", row.SnapshotID)
		return nil, false, nil
	}

	primaryType := enricher.ClassifyPrimaryTypeFromSources(cached)
	top := cached[0]

	l.logger.Info("reuse cache hit", "keyword_id", keywordID, "source_snapshot_id", row.SnapshotID, "sources", len(cached))

	return &Result{
		SummaryShortKo: row.SummaryShortKo,
		SummaryShortEn: row.SummaryShortEn,
		PrimaryType:    primaryType,
		TopSource: entity.TopSource{
			Title:    top.Title,
			URL:      top.URL,
			Domain:   top.Domain,
			ImageURL: top.ImageURL,
		},
		cachedSources: cached,
	}, true, nil
}
