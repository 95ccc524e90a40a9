package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/repository"
)

// AliasRepo is the PostgreSQL-backed repository.AliasRepository.
type AliasRepo struct{ db *sql.DB }

func NewAliasRepo(db *sql.DB) repository.AliasRepository {
	return &AliasRepo{db: db}
}

const upsertAliasQuery = `
INSERT INTO keyword_aliases (canonical_keyword_id, alias, lang, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (canonical_keyword_id, alias) DO UPDATE SET
	lang = EXCLUDED.lang`

func (repo *AliasRepo) UpsertMany(ctx context.Context, rows []entity.AliasRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertMany: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertAliasQuery)
	if err != nil {
		return fmt.Errorf("UpsertMany: Prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx, r.CanonicalKeywordID, r.Alias, r.Lang); err != nil {
			return fmt.Errorf("UpsertMany: Exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertMany: Commit: %w", err)
	}
	return nil
}
