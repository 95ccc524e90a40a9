package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
)

func newKeyword(text string) entity.NormalizedKeyword {
	return entity.NormalizedKeyword{
		KeywordID: text,
		Keyword:   text,
		Candidate: entity.NewKeywordCandidate(text),
	}
}

func TestMatch_TolerantPhraseMatch(t *testing.T) {
	items := []entity.Item{
		{Title: "Claude Code introduces Teams feature", SourceDomain: "anthropic.com", Tier: entity.TierP0Curated, PublishedAt: time.Now()},
	}
	keywords := []entity.NormalizedKeyword{newKeyword("Claude Code Teams")}

	matched := Match(keywords, items)
	require.Len(t, matched, 1)
	assert.Equal(t, 1, matched[0].Candidate.Count)
}

func TestMatch_ShortTokenWholeWord(t *testing.T) {
	items := []entity.Item{
		{Title: "AI news roundup", Tier: entity.TierCommunity, PublishedAt: time.Now()},
		{Title: "Domain expert analysis", Tier: entity.TierCommunity, PublishedAt: time.Now()},
	}
	keywords := []entity.NormalizedKeyword{newKeyword("ai")}

	matched := Match(keywords, items)
	require.Len(t, matched, 1)
	assert.Equal(t, 1, matched[0].Candidate.Count)
}

func TestMatch_DropsZeroCountKeywords(t *testing.T) {
	items := []entity.Item{{Title: "unrelated headline", Tier: entity.TierCommunity, PublishedAt: time.Now()}}
	keywords := []entity.NormalizedKeyword{newKeyword("Claude Opus")}

	matched := Match(keywords, items)
	assert.Empty(t, matched)
}

func TestMatch_UpgradesTierAndLatestAt(t *testing.T) {
	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now()
	items := []entity.Item{
		{Title: "GPT-5 launch", SourceDomain: "a.com", Tier: entity.TierCommunity, PublishedAt: older},
		{Title: "GPT-5 official release", SourceDomain: "b.com", Tier: entity.TierP0Curated, PublishedAt: newer},
	}
	keywords := []entity.NormalizedKeyword{newKeyword("GPT-5")}

	matched := Match(keywords, items)
	require.Len(t, matched, 1)
	assert.Equal(t, 2, matched[0].Candidate.Count)
	assert.Equal(t, entity.TierP0Curated, matched[0].Candidate.Tier)
	assert.Equal(t, 2, matched[0].Candidate.DomainCount())
	assert.WithinDuration(t, newer, matched[0].Candidate.LatestAt, time.Second)
}

func TestAsciiVariant_StripsHangulAndCollapsesSpaces(t *testing.T) {
	assert.Equal(t, "code", asciiVariant("클로드 code"))
	assert.Equal(t, "", asciiVariant("Claude Code"))
}

func TestMatch_MixedHangulMatchesAsciiVariant(t *testing.T) {
	items := []entity.Item{
		{Title: "Anthropic ships Code update", Tier: entity.TierP0Curated, PublishedAt: time.Now()},
	}
	keywords := []entity.NormalizedKeyword{newKeyword("클로드 Code")}

	matched := Match(keywords, items)
	require.Len(t, matched, 1)
}
