package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/repository"
)

// SourceRepo is the PostgreSQL-backed repository.SourceRepository.
type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

const insertSourceQuery = `
INSERT INTO sources (
	snapshot_id, keyword_id, type, title, url, domain,
	published_at_utc, snippet, image_url, title_ko, title_en, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
ON CONFLICT (snapshot_id, keyword_id, type, url) DO UPDATE SET
	title = EXCLUDED.title,
	domain = EXCLUDED.domain,
	published_at_utc = EXCLUDED.published_at_utc,
	snippet = EXCLUDED.snippet,
	image_url = EXCLUDED.image_url,
	title_ko = EXCLUDED.title_ko,
	title_en = EXCLUDED.title_en`

func (repo *SourceRepo) InsertMany(ctx context.Context, rows []entity.SourceRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertMany: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSourceQuery)
	if err != nil {
		return fmt.Errorf("InsertMany: Prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			r.SnapshotID, r.KeywordID, r.Type, r.Title, r.URL, r.Domain,
			r.PublishedAtUTC, r.Snippet, r.ImageURL, r.TitleKo, r.TitleEn,
		); err != nil {
			return fmt.Errorf("InsertMany: Exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InsertMany: Commit: %w", err)
	}
	return nil
}

func (repo *SourceRepo) ListByKeyword(ctx context.Context, snapshotID, keywordID string) ([]entity.SourceRow, error) {
	const query = `
SELECT id, snapshot_id, keyword_id, type, title, url, domain,
       published_at_utc, snippet, image_url, title_ko, title_en, created_at
FROM sources
WHERE snapshot_id = $1 AND keyword_id = $2
ORDER BY id ASC`

	rows, err := repo.db.QueryContext(ctx, query, snapshotID, keywordID)
	if err != nil {
		return nil, fmt.Errorf("ListByKeyword: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []entity.SourceRow
	for rows.Next() {
		var s entity.SourceRow
		if err := rows.Scan(
			&s.ID, &s.SnapshotID, &s.KeywordID, &s.Type, &s.Title, &s.URL, &s.Domain,
			&s.PublishedAtUTC, &s.Snippet, &s.ImageURL, &s.TitleKo, &s.TitleEn, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListByKeyword: Scan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
