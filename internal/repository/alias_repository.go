package repository

import (
	"context"

	"trendpulse/internal/domain/entity"
)

// AliasRepository persists alternative spellings of a keyword, reserved for
// the out-of-scope search/read API's lookup path.
type AliasRepository interface {
	// UpsertMany idempotently writes rows keyed by (CanonicalKeywordID, Alias).
	UpsertMany(ctx context.Context, rows []entity.AliasRow) error
}
