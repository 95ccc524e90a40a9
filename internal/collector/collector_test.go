package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
)

type fakeAdapter struct {
	name  string
	items []entity.Item
	delay time.Duration
}

func (f fakeAdapter) Name() string { return f.name }

func (f fakeAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.items
}

func TestCollector_Run_DedupesByLinkPreservingPriorityOrder(t *testing.T) {
	highTier := fakeAdapter{
		name: "curated-rss",
		items: []entity.Item{
			{Title: "from curated", Link: "https://example.com/a", Tier: entity.TierP0Curated},
		},
	}
	lowTier := fakeAdapter{
		name: "hn",
		items: []entity.Item{
			{Title: "from hn", Link: "https://example.com/a", Tier: entity.TierCommunity},
			{Title: "unique", Link: "https://example.com/b", Tier: entity.TierCommunity},
		},
	}

	c := New(nil)
	merged := c.Run(context.Background(), []Adapter{highTier, lowTier}, 48)

	require.Len(t, merged, 2)
	assert.Equal(t, "from curated", merged[0].Title)
	assert.Equal(t, "https://example.com/b", merged[1].Link)
}

func TestCollector_Run_FailingAdapterContributesEmpty(t *testing.T) {
	ok := fakeAdapter{name: "ok", items: []entity.Item{{Link: "https://example.com/x"}}}
	empty := fakeAdapter{name: "broken"}

	c := New(nil)
	merged := c.Run(context.Background(), []Adapter{ok, empty}, 48)

	require.Len(t, merged, 1)
	assert.Equal(t, "https://example.com/x", merged[0].Link)
}

func TestMerge_SkipsBlankLinks(t *testing.T) {
	merged := Merge([][]entity.Item{
		{{Link: ""}, {Link: "https://example.com/y"}},
	})
	require.Len(t, merged, 1)
}
