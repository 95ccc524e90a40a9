// Package collector fans out across source adapters and merges their
// results into a deduplicated, tier-prioritized item stream.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trendpulse/internal/domain/entity"
)

// Adapter is the single capability every source family implements: collect
// items published within the last windowHours. Adapters never raise — any
// failure is logged internally and contributes an empty slice, per spec's
// settled-join fan-out model.
type Adapter interface {
	Name() string
	Collect(ctx context.Context, windowHours int) []entity.Item
}

// Collector runs every adapter concurrently and merges their outputs,
// expressing §4.2's fixed merge-order tier priority: earlier entries in
// adapters win ties on duplicate URLs.
type Collector struct {
	logger *slog.Logger
}

// New creates a Collector.
func New(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger}
}

// Run launches every adapter concurrently (settled-join: no cancellation
// propagates across adapters; a slow adapter delays only itself up to its
// own internal timeout) and merges the results preserving the input order
// of adapters, so duplicate URLs resolve in favor of the earlier-listed,
// higher-tier adapter.
func (c *Collector) Run(ctx context.Context, adapters []Adapter, windowHours int) []entity.Item {
	results := make([][]entity.Item, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()
			start := time.Now()
			items := a.Collect(ctx, windowHours)
			c.logger.Info("adapter collected",
				slog.String("adapter", a.Name()),
				slog.Int("count", len(items)),
				slog.Duration("elapsed", time.Since(start)))
			results[i] = items
		}(i, a)
	}
	wg.Wait()

	return Merge(results)
}

// Merge flattens ordered result groups into a single item slice, keeping
// the first occurrence of each link (case-sensitive, exact URL match) and
// dropping subsequent duplicates regardless of which group they came from.
func Merge(groups [][]entity.Item) []entity.Item {
	seen := make(map[string]struct{})
	merged := make([]entity.Item, 0)
	for _, group := range groups {
		for _, it := range group {
			if it.Link == "" {
				continue
			}
			if _, ok := seen[it.Link]; ok {
				continue
			}
			seen[it.Link] = struct{}{}
			merged = append(merged, it)
		}
	}
	return merged
}
