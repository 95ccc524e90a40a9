package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/repository"
)

// KeywordRepo is the PostgreSQL-backed repository.KeywordRepository.
type KeywordRepo struct{ db *sql.DB }

func NewKeywordRepo(db *sql.DB) repository.KeywordRepository {
	return &KeywordRepo{db: db}
}

const upsertKeywordQuery = `
INSERT INTO keywords (
	snapshot_id, keyword_id, keyword, rank, delta_rank, is_new,
	score, score_recency, score_frequency, score_authority, score_internal,
	summary_short_ko, summary_short_en, primary_type,
	top_source_title, top_source_url, top_source_domain, top_source_image_url,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
ON CONFLICT (snapshot_id, keyword_id) DO NOTHING`

func (repo *KeywordRepo) UpsertMany(ctx context.Context, rows []entity.KeywordRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertMany: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertKeywordQuery)
	if err != nil {
		return fmt.Errorf("UpsertMany: Prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			r.SnapshotID, r.KeywordID, r.Keyword, r.Rank, r.DeltaRank, r.IsNew,
			r.Score, r.ScoreRecency, r.ScoreFrequency, r.ScoreAuthority, r.ScoreInternal,
			r.SummaryShortKo, r.SummaryShortEn, string(r.PrimaryType),
			nullableString(r.TopSource.Title), nullableString(r.TopSource.URL),
			nullableString(r.TopSource.Domain), nullableString(r.TopSource.ImageURL),
		); err != nil {
			return fmt.Errorf("UpsertMany: Exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertMany: Commit: %w", err)
	}
	return nil
}

func (repo *KeywordRepo) ListBySnapshot(ctx context.Context, snapshotID string) ([]entity.KeywordRow, error) {
	const query = `
SELECT snapshot_id, keyword_id, keyword, rank, delta_rank, is_new,
       score, score_recency, score_frequency, score_authority, score_internal,
       summary_short_ko, summary_short_en, primary_type,
       top_source_title, top_source_url, top_source_domain, top_source_image_url, created_at
FROM keywords
WHERE snapshot_id = $1
ORDER BY rank ASC`

	rows, err := repo.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("ListBySnapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []entity.KeywordRow
	for rows.Next() {
		k, err := scanKeywordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBySnapshot: %w", err)
		}
		result = append(result, k)
	}
	return result, rows.Err()
}

func (repo *KeywordRepo) Get(ctx context.Context, snapshotID, keywordID string) (*entity.KeywordRow, error) {
	const query = `
SELECT snapshot_id, keyword_id, keyword, rank, delta_rank, is_new,
       score, score_recency, score_frequency, score_authority, score_internal,
       summary_short_ko, summary_short_en, primary_type,
       top_source_title, top_source_url, top_source_domain, top_source_image_url, created_at
FROM keywords
WHERE snapshot_id = $1 AND keyword_id = $2`

	row := repo.db.QueryRowContext(ctx, query, snapshotID, keywordID)
	k, err := scanKeywordRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &k, nil
}

func (repo *KeywordRepo) FindLatestByKeywordID(ctx context.Context, keywordID string, snapshotIDs []string) (*entity.KeywordRow, error) {
	if len(snapshotIDs) == 0 {
		return nil, nil
	}

	const query = `
SELECT snapshot_id, keyword_id, keyword, rank, delta_rank, is_new,
       score, score_recency, score_frequency, score_authority, score_internal,
       summary_short_ko, summary_short_en, primary_type,
       top_source_title, top_source_url, top_source_domain, top_source_image_url, created_at
FROM keywords
WHERE snapshot_id = ANY($1) AND keyword_id = $2
ORDER BY created_at DESC
LIMIT 1`

	row := repo.db.QueryRowContext(ctx, query, pq.Array(snapshotIDs), keywordID)
	k, err := scanKeywordRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindLatestByKeywordID: %w", err)
	}
	return &k, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeywordRow(s rowScanner) (entity.KeywordRow, error) {
	var k entity.KeywordRow
	var primaryType string
	var topTitle, topURL, topDomain, topImage sql.NullString

	err := s.Scan(
		&k.SnapshotID, &k.KeywordID, &k.Keyword, &k.Rank, &k.DeltaRank, &k.IsNew,
		&k.Score, &k.ScoreRecency, &k.ScoreFrequency, &k.ScoreAuthority, &k.ScoreInternal,
		&k.SummaryShortKo, &k.SummaryShortEn, &primaryType,
		&topTitle, &topURL, &topDomain, &topImage, &k.CreatedAt,
	)
	if err != nil {
		return entity.KeywordRow{}, err
	}

	k.PrimaryType = entity.PrimaryType(primaryType)
	k.TopSource = entity.TopSource{
		Title:    topTitle.String,
		URL:      topURL.String,
		Domain:   topDomain.String,
		ImageURL: topImage.String,
	}
	return k, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
