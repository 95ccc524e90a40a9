// Package orchestrator composes collection, extraction, matching, scoring,
// enrichment and persistence into one pipeline run (spec §4.8).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"trendpulse/internal/collector"
	"trendpulse/internal/domain/entity"
	"trendpulse/internal/enricher"
	"trendpulse/internal/extractor"
	"trendpulse/internal/matcher"
	"trendpulse/internal/pkg/langtag"
	"trendpulse/internal/pkg/workerpool"
	"trendpulse/internal/repository"
	"trendpulse/internal/reusecache"
	"trendpulse/internal/scorer"
)

// kstLocation is the fixed Asia/Seoul offset used to compute snapshotId.
// Seoul carries no DST, so a fixed offset is equivalent to the zoneinfo
// entry and needs no external tzdata lookup.
var kstLocation = time.FixedZone("KST", 9*60*60)

// WindowHours bounds how far back the collector fans out for fresh items.
const WindowHours = 48

// Orchestrator runs one full pipeline pass end to end.
type Orchestrator struct {
	collector *collector.Collector
	adapters  []collector.Adapter
	extractor *extractor.Extractor
	enricher  *enricher.Enricher
	reuse     *reusecache.Lookup

	snapshots    repository.SnapshotRepository
	keywords     repository.KeywordRepository
	sources      repository.SourceRepository
	aliases      repository.AliasRepository
	searchCounts repository.SearchCountRepository

	topR                   int
	topD                   int
	keywordConcurrency     int
	lightweightConcurrency int
	reuseWindowSnapshots   int

	logger *slog.Logger
}

// Config bundles every tunable Orchestrator needs beyond its collaborators.
type Config struct {
	TopR                   int
	TopD                   int
	KeywordConcurrency     int
	LightweightConcurrency int
	ReuseWindowSnapshots   int
}

func New(
	coll *collector.Collector,
	adapters []collector.Adapter,
	extr *extractor.Extractor,
	enr *enricher.Enricher,
	reuse *reusecache.Lookup,
	snapshots repository.SnapshotRepository,
	keywords repository.KeywordRepository,
	sources repository.SourceRepository,
	aliases repository.AliasRepository,
	searchCounts repository.SearchCountRepository,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopR <= 0 {
		cfg.TopR = scorer.DefaultTopR
	}
	if cfg.TopD <= 0 {
		cfg.TopD = scorer.DefaultTopD
	}
	if cfg.KeywordConcurrency <= 0 {
		cfg.KeywordConcurrency = 3
	}
	if cfg.LightweightConcurrency <= 0 {
		cfg.LightweightConcurrency = 5
	}
	if cfg.ReuseWindowSnapshots <= 0 {
		cfg.ReuseWindowSnapshots = reusecache.DefaultWindow
	}

	return &Orchestrator{
		collector: coll, adapters: adapters, extractor: extr, enricher: enr, reuse: reuse,
		snapshots: snapshots, keywords: keywords, sources: sources,
		aliases: aliases, searchCounts: searchCounts,
		topR: cfg.TopR, topD: cfg.TopD,
		keywordConcurrency: cfg.KeywordConcurrency, lightweightConcurrency: cfg.LightweightConcurrency,
		reuseWindowSnapshots: cfg.ReuseWindowSnapshots,
		logger:               logger,
	}
}

// Summary is the run's counter report, returned to the trigger handler.
type Summary struct {
	SnapshotID      string
	NextUpdateAtUTC time.Time
	KeywordCount    int
	ReusedCount     int
	NewCount        int
	ElapsedMs       int64
}

// NextUpdater computes nextUpdateAtUtc from the pipeline schedule; satisfied
// by *config.PipelineConfig without orchestrator importing the config
// package (avoids an import cycle risk as config grows).
type NextUpdater interface {
	NextUpdateAtUTC(now time.Time) time.Time
}

// Run executes one complete pipeline pass. Per-keyword enrichment failures
// are tolerated (logged, the keyword still persists with whatever it has);
// only snapshot-row and keyword-row persistence failures abort the run.
func (o *Orchestrator) Run(ctx context.Context, schedule NextUpdater) (Summary, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := o.logger.With(slog.String("run_id", runID))

	now := time.Now().UTC()
	snapshotID := now.In(kstLocation).Format("20060102_1504") + "_KST"
	logger.Info("pipeline run starting", slog.String("snapshot_id", snapshotID))

	items := o.collector.Run(ctx, o.adapters, WindowHours)
	normalized := o.extractor.Extract(ctx, items)
	matched := matcher.MatchConcurrent(normalized, items)

	scored := scorer.Score(matched, now)
	recentSnapshotIDs, err := o.snapshots.RecentIDs(ctx, o.reuseWindowSnapshots)
	if err != nil {
		logger.Warn("recent snapshot lookup failed, ranking with no previous ranks", "error", err)
		recentSnapshotIDs = nil
	}
	ranked := scorer.Rank(scored, o.prevRankLookup(ctx, recentSnapshotIDs), o.topR)

	snapshot := &entity.Snapshot{
		SnapshotID:      snapshotID,
		UpdatedAtUTC:    now,
		NextUpdateAtUTC: schedule.NextUpdateAtUTC(now),
	}
	if err := o.snapshots.Create(ctx, snapshot); err != nil {
		return Summary{}, fmt.Errorf("create snapshot: %w", err)
	}

	o.persistAliases(ctx, ranked, logger)

	detailed := ranked
	var lightweight []scorer.Scored
	if len(ranked) > o.topD {
		detailed = ranked[:o.topD]
		lightweight = ranked[o.topD:]
	}

	var reusedCount atomic.Int64
	newCount := 0
	for _, s := range ranked {
		if s.IsNew {
			newCount++
		}
	}

	workerpool.Run(detailed, o.keywordConcurrency, func(s scorer.Scored) {
		if o.persistDetailed(ctx, snapshotID, s) {
			reusedCount.Add(1)
		}
	})

	workerpool.Run(lightweight, o.lightweightConcurrency, func(s scorer.Scored) {
		o.persistLightweight(ctx, snapshotID, s)
	})

	elapsed := time.Since(start)
	logger.Info("pipeline run completed",
		slog.Int("keyword_count", len(ranked)),
		slog.Int64("reused_count", reusedCount.Load()),
		slog.Int("new_count", newCount),
		slog.Duration("elapsed", elapsed))

	return Summary{
		SnapshotID:      snapshotID,
		NextUpdateAtUTC: snapshot.NextUpdateAtUTC,
		KeywordCount:    len(ranked),
		ReusedCount:     int(reusedCount.Load()),
		NewCount:        newCount,
		ElapsedMs:       elapsed.Milliseconds(),
	}, nil
}

// persistAliases writes one AliasRow per alternative spelling the
// extractor merged into each ranked keyword (spec §4.3 step 3's alias
// union), reserved for the out-of-scope search/read API's lookup path.
// Failures are logged, not fatal: aliases are a lookup convenience, never
// read back by this pipeline itself.
func (o *Orchestrator) persistAliases(ctx context.Context, ranked []scorer.Scored, logger *slog.Logger) {
	if o.aliases == nil {
		return
	}
	var rows []entity.AliasRow
	for _, s := range ranked {
		for _, alias := range s.Keyword.Aliases {
			rows = append(rows, entity.AliasRow{
				CanonicalKeywordID: s.Keyword.KeywordID,
				Alias:              alias,
				Lang:               detectLang(alias),
			})
		}
	}
	if len(rows) == 0 {
		return
	}
	if err := o.aliases.UpsertMany(ctx, rows); err != nil {
		logger.Warn("persist aliases failed", "error", err)
	}
}

// detectLang reports Korean for any alias containing a Hangul syllable
// codepoint, English otherwise.
func detectLang(s string) entity.Lang {
	if langtag.ContainsHangul(s) {
		return entity.LangKo
	}
	return entity.LangEn
}

// prevRankLookup builds a scorer.PrevRankLookup backed by the keyword
// repository, searching the same recent-snapshot window as the reuse cache.
func (o *Orchestrator) prevRankLookup(ctx context.Context, recentSnapshotIDs []string) scorer.PrevRankLookup {
	return func(keywordID string) (int, bool) {
		if len(recentSnapshotIDs) == 0 {
			return 0, false
		}
		row, err := o.keywords.FindLatestByKeywordID(ctx, keywordID, recentSnapshotIDs)
		if err != nil {
			o.logger.Warn("prev-rank lookup failed", "keyword_id", keywordID, "error", err)
			return 0, false
		}
		if row == nil {
			return 0, false
		}
		return row.Rank, true
	}
}

// persistDetailed enriches (via reuse cache or live enrichment) and
// persists one top-D keyword. Returns true if the reuse cache served it.
func (o *Orchestrator) persistDetailed(ctx context.Context, snapshotID string, s scorer.Scored) bool {
	keywordID := s.Keyword.KeywordID
	row := entity.KeywordRow{
		SnapshotID: snapshotID, KeywordID: keywordID, Keyword: s.Keyword.Keyword,
		Rank: s.Rank, DeltaRank: s.DeltaRank, IsNew: s.IsNew,
		Score: s.Total, ScoreRecency: s.Recency, ScoreFrequency: s.Frequency,
		ScoreAuthority: s.Authority, ScoreInternal: s.Internal,
	}

	if cached, hit, err := o.reuse.Find(ctx, keywordID); err != nil {
		o.logger.Warn("reuse cache lookup failed, falling through to enrichment", "keyword_id", keywordID, "error", err)
	} else if hit {
		row.SummaryShortKo = cached.SummaryShortKo
		row.SummaryShortEn = cached.SummaryShortEn
		row.PrimaryType = cached.PrimaryType
		row.TopSource = cached.TopSource

		if err := o.keywords.UpsertMany(ctx, []entity.KeywordRow{row}); err != nil {
			o.logger.Error("persist reused keyword failed", "keyword_id", keywordID, "error", err)
			return false
		}
		if err := o.sources.InsertMany(ctx, cached.SourceRowsFor(snapshotID, keywordID)); err != nil {
			o.logger.Error("persist reused sources failed", "keyword_id", keywordID, "error", err)
		}
		return true
	}

	result := o.enricher.Enrich(ctx, s.Keyword.Keyword)
	row.SummaryShortKo = result.SummaryShortKo
	row.SummaryShortEn = result.SummaryShortEn
	row.PrimaryType = result.PrimaryType
	row.TopSource = result.TopSource

	if o.searchCounts != nil && result.SearchCount > 0 {
		searchRow := []entity.SearchCountRow{{Query: s.Keyword.Keyword, Count: int64(result.SearchCount)}}
		if err := o.searchCounts.IncrementMany(ctx, searchRow); err != nil {
			o.logger.Warn("persist search count failed", "keyword_id", keywordID, "error", err)
		}
	}

	if err := o.keywords.UpsertMany(ctx, []entity.KeywordRow{row}); err != nil {
		o.logger.Error("persist enriched keyword failed", "keyword_id", keywordID, "error", err)
		return false
	}

	if len(result.Sources) > 0 {
		sourceRows := make([]entity.SourceRow, len(result.Sources))
		for i, c := range result.Sources {
			sourceRows[i] = c.Finalize(snapshotID, keywordID)
		}
		if err := o.sources.InsertMany(ctx, sourceRows); err != nil {
			o.logger.Error("persist enriched sources failed", "keyword_id", keywordID, "error", err)
		}
	}
	return false
}

// persistLightweight writes a summary/top-source-free row for a position
// beyond the enrichment cutoff (spec §4.5's "lightweight" rows).
func (o *Orchestrator) persistLightweight(ctx context.Context, snapshotID string, s scorer.Scored) {
	row := entity.KeywordRow{
		SnapshotID: snapshotID, KeywordID: s.Keyword.KeywordID, Keyword: s.Keyword.Keyword,
		Rank: s.Rank, DeltaRank: s.DeltaRank, IsNew: s.IsNew,
		Score: s.Total, ScoreRecency: s.Recency, ScoreFrequency: s.Frequency,
		ScoreAuthority: s.Authority, ScoreInternal: s.Internal,
		PrimaryType: entity.PrimaryTypeNews,
	}
	if err := o.keywords.UpsertMany(ctx, []entity.KeywordRow{row}); err != nil {
		o.logger.Error("persist lightweight keyword failed", "keyword_id", s.Keyword.KeywordID, "error", err)
	}
}
