package repository

import (
	"context"

	"trendpulse/internal/domain/entity"
)

// SnapshotRepository persists the immutable Snapshot root. A Snapshot is
// never updated after Create; a new pipeline run always creates a new row.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *entity.Snapshot) error
	Latest(ctx context.Context) (*entity.Snapshot, error)
	Get(ctx context.Context, snapshotID string) (*entity.Snapshot, error)

	// RecentIDs returns up to limit SnapshotIDs, most recent first, used to
	// bound the reuse cache's lookback window.
	RecentIDs(ctx context.Context, limit int) ([]string, error)
}
