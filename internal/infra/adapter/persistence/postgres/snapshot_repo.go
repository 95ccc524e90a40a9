package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/repository"
)

// SnapshotRepo is the PostgreSQL-backed repository.SnapshotRepository.
type SnapshotRepo struct{ db *sql.DB }

func NewSnapshotRepo(db *sql.DB) repository.SnapshotRepository {
	return &SnapshotRepo{db: db}
}

func (repo *SnapshotRepo) Create(ctx context.Context, snapshot *entity.Snapshot) error {
	const query = `
INSERT INTO snapshots (snapshot_id, updated_at_utc, next_update_at_utc, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (snapshot_id) DO NOTHING
RETURNING created_at`

	err := repo.db.QueryRowContext(ctx, query,
		snapshot.SnapshotID, snapshot.UpdatedAtUTC, snapshot.NextUpdateAtUTC,
	).Scan(&snapshot.CreatedAt)
	if err == sql.ErrNoRows {
		// Already exists (idempotent re-run of the same snapshot ID).
		return nil
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SnapshotRepo) Latest(ctx context.Context) (*entity.Snapshot, error) {
	const query = `
SELECT snapshot_id, updated_at_utc, next_update_at_utc, created_at
FROM snapshots
ORDER BY updated_at_utc DESC
LIMIT 1`
	var s entity.Snapshot
	err := repo.db.QueryRowContext(ctx, query).
		Scan(&s.SnapshotID, &s.UpdatedAtUTC, &s.NextUpdateAtUTC, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return &s, nil
}

func (repo *SnapshotRepo) Get(ctx context.Context, snapshotID string) (*entity.Snapshot, error) {
	const query = `
SELECT snapshot_id, updated_at_utc, next_update_at_utc, created_at
FROM snapshots
WHERE snapshot_id = $1`
	var s entity.Snapshot
	err := repo.db.QueryRowContext(ctx, query, snapshotID).
		Scan(&s.SnapshotID, &s.UpdatedAtUTC, &s.NextUpdateAtUTC, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &s, nil
}

func (repo *SnapshotRepo) RecentIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}
	const query = `
SELECT snapshot_id
FROM snapshots
ORDER BY updated_at_utc DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("RecentIDs: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
