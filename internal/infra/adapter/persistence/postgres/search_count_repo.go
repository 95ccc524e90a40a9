package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/repository"
)

// SearchCountRepo is the PostgreSQL-backed repository.SearchCountRepository.
type SearchCountRepo struct{ db *sql.DB }

func NewSearchCountRepo(db *sql.DB) repository.SearchCountRepository {
	return &SearchCountRepo{db: db}
}

const incrementSearchCountQuery = `
INSERT INTO search_counts (query, count, last_searched_at)
VALUES ($1, $2, NOW())
ON CONFLICT (query) DO UPDATE SET
	count = search_counts.count + EXCLUDED.count,
	last_searched_at = EXCLUDED.last_searched_at`

func (repo *SearchCountRepo) IncrementMany(ctx context.Context, rows []entity.SearchCountRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("IncrementMany: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, incrementSearchCountQuery)
	if err != nil {
		return fmt.Errorf("IncrementMany: Prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx, r.Query, r.Count); err != nil {
			return fmt.Errorf("IncrementMany: Exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("IncrementMany: Commit: %w", err)
	}
	return nil
}
