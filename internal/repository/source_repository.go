package repository

import (
	"context"

	"trendpulse/internal/domain/entity"
)

// SourceRepository persists the enrichment sources backing a KeywordRow.
type SourceRepository interface {
	// InsertMany idempotently writes rows keyed by (SnapshotID, KeywordID, Type, URL).
	InsertMany(ctx context.Context, rows []entity.SourceRow) error

	// ListByKeyword returns every SourceRow for one keyword within one snapshot.
	ListByKeyword(ctx context.Context, snapshotID, keywordID string) ([]entity.SourceRow, error)
}
