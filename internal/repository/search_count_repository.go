package repository

import (
	"context"

	"trendpulse/internal/domain/entity"
)

// SearchCountRepository tracks how often a query string has been searched
// during enrichment, reserved for the out-of-scope search/read API.
type SearchCountRepository interface {
	// IncrementMany adds each row's Count to the running total for its
	// Query, creating the row on first occurrence.
	IncrementMany(ctx context.Context, rows []entity.SearchCountRow) error
}
