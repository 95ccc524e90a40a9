package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
)

type fakeExtractorClient struct {
	responses [][]ExtractedKeyword
	calls     int
}

func (f *fakeExtractorClient) ExtractKeywords(ctx context.Context, titles []string) ([]ExtractedKeyword, error) {
	if f.calls >= len(f.responses) {
		return nil, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func TestExtractor_Extract_MergesAcrossBatchesAndFilters(t *testing.T) {
	client := &fakeExtractorClient{
		responses: [][]ExtractedKeyword{
			{
				{Keyword: "Claude Opus 4.5", Aliases: []string{"Opus 4.5"}},
				{Keyword: "ai"},
			},
		},
	}
	e := New(client, nil)

	items := []entity.Item{
		{Title: "Anthropic launches Claude Opus 4.5", Tier: entity.TierP0Curated},
	}
	result := e.Extract(context.Background(), items)

	require.Len(t, result, 1)
	assert.Equal(t, "Claude Opus 4.5", result[0].Keyword)
	assert.Contains(t, result[0].Aliases, "Opus 4.5")
}

func TestExtractor_Extract_RegexFallbackWhenLLMYieldsNothing(t *testing.T) {
	client := &fakeExtractorClient{responses: [][]ExtractedKeyword{{}}}
	e := New(client, nil)

	items := []entity.Item{
		{Title: "Announcing GPT-5 and WebAssembly tooling", Tier: entity.TierP0Curated},
	}
	result := e.Extract(context.Background(), items)

	var ids []string
	for _, k := range result {
		ids = append(ids, k.KeywordID)
	}
	assert.Contains(t, ids, slugify("gpt-5"))
}

func TestExtractor_DedupTrailingVerbs_MergesAliases(t *testing.T) {
	merged := map[string]*candidate{
		"생성형 ai 도입": {canonical: "생성형 ai 도입", display: "생성형 AI 도입", aliases: map[string]struct{}{}},
		"생성형 ai":    {canonical: "생성형 ai", display: "생성형 AI", aliases: map[string]struct{}{"생성AI": {}}},
	}
	out := dedupTrailingVerbs(merged)
	require.Len(t, out, 1)
	c := out["생성형 ai"]
	require.NotNil(t, c)
	assert.Contains(t, c.aliases, "생성AI")
}

func TestPrepareBatches_DedupsCaseInsensitiveAndOrdersByTier(t *testing.T) {
	items := []entity.Item{
		{Title: "Same Title", Tier: entity.TierCommunity},
		{Title: "same title", Tier: entity.TierP0Curated},
		{Title: "Other", Tier: entity.TierP1Context},
	}
	batches := prepareBatches(items)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "Same Title", batches[0][0])
}
