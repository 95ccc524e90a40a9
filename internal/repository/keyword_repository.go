package repository

import (
	"context"

	"trendpulse/internal/domain/entity"
)

// KeywordRepository persists the ranked KeywordRows belonging to a Snapshot.
type KeywordRepository interface {
	// UpsertMany idempotently writes rows keyed by (SnapshotID, KeywordID).
	// Re-running a snapshot write is safe: later calls overwrite earlier ones.
	UpsertMany(ctx context.Context, rows []entity.KeywordRow) error

	// ListBySnapshot returns every KeywordRow for a snapshot, ordered by rank.
	ListBySnapshot(ctx context.Context, snapshotID string) ([]entity.KeywordRow, error)

	// Get returns a single row, or nil if absent.
	Get(ctx context.Context, snapshotID, keywordID string) (*entity.KeywordRow, error)

	// FindLatestByKeywordID returns the most recent KeywordRow sharing
	// keywordID among the given snapshot IDs, or nil if none match. Lookup
	// is by the stable slug identity, not keyword text — per the pipeline's
	// non-goal that only same-canonical-ID keywords are ever reused or
	// rank-compared across snapshots. snapshotIDs is expected most-recent
	// first; ties broken by created_at.
	FindLatestByKeywordID(ctx context.Context, keywordID string, snapshotIDs []string) (*entity.KeywordRow, error)
}
