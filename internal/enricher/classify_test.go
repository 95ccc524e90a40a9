package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trendpulse/internal/domain/entity"
)

func TestClassifySource(t *testing.T) {
	tests := []struct {
		name string
		in   SearchResult
		want entity.PrimaryType
	}{
		{"video type forces data", SearchResult{Type: "video", URL: "https://example.com/x"}, entity.PrimaryTypeData},
		{"image type forces data", SearchResult{Type: "image", URL: "https://example.com/x"}, entity.PrimaryTypeData},
		{"social host", SearchResult{Type: "news", URL: "https://twitter.com/x/status/1"}, entity.PrimaryTypeSocial},
		{"data host", SearchResult{Type: "news", URL: "https://github.com/org/repo"}, entity.PrimaryTypeData},
		{"arxiv pattern", SearchResult{Type: "web", URL: "https://arxiv.org/abs/2501.00001"}, entity.PrimaryTypeData},
		{"youtube pattern", SearchResult{Type: "web", URL: "https://youtube.com/watch?v=abc"}, entity.PrimaryTypeData},
		{"plain news", SearchResult{Type: "news", URL: "https://techcrunch.com/article"}, entity.PrimaryTypeNews},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySource(tt.in))
		})
	}
}

func TestWeightForPosition(t *testing.T) {
	assert.Equal(t, 3, weightForPosition(1))
	assert.Equal(t, 3, weightForPosition(3))
	assert.Equal(t, 2, weightForPosition(4))
	assert.Equal(t, 2, weightForPosition(8))
	assert.Equal(t, 1, weightForPosition(9))
	assert.Equal(t, 1, weightForPosition(100))
}

func TestVotePrimaryType_MajorityWins(t *testing.T) {
	results := []SearchResult{
		{Type: "news", URL: "https://techcrunch.com/a"},
		{Type: "news", URL: "https://theverge.com/b"},
		{Type: "news", URL: "https://github.com/org/repo"},
	}
	assert.Equal(t, entity.PrimaryTypeNews, votePrimaryType(results))
}

func TestVotePrimaryType_DataOutvotesNewsAtLowerPositions(t *testing.T) {
	results := []SearchResult{
		{Type: "news", URL: "https://github.com/org/a"},
		{Type: "news", URL: "https://github.com/org/b"},
		{Type: "news", URL: "https://github.com/org/c"},
		{Type: "news", URL: "https://techcrunch.com/d"},
	}
	// 3 data-weighted votes (weight 3 each = 9) beat 1 news vote (weight 2).
	assert.Equal(t, entity.PrimaryTypeData, votePrimaryType(results))
}

func TestVotePrimaryType_EmptyDefaultsToNews(t *testing.T) {
	assert.Equal(t, entity.PrimaryTypeNews, votePrimaryType(nil))
}

func TestVotePrimaryType_TieBreaksToFirstSourceCategory(t *testing.T) {
	// One social, one data, equal weight (both position-dominant), first is social.
	results := []SearchResult{
		{Type: "news", URL: "https://twitter.com/a/status/1"},
		{Type: "news", URL: "https://github.com/org/b"},
	}
	assert.Equal(t, entity.PrimaryTypeSocial, votePrimaryType(results))
}
