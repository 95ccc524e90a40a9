package scorer

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
)

func newScoredKeyword(id string, latestAt time.Time, domains int, tier entity.Tier) entity.NormalizedKeyword {
	cand := entity.NewKeywordCandidate(id)
	cand.LatestAt = latestAt
	cand.Tier = tier
	for i := 0; i < domains; i++ {
		cand.Domains[string(rune('a'+i))+".com"] = struct{}{}
	}
	return entity.NormalizedKeyword{KeywordID: id, Keyword: id, Candidate: cand}
}

func TestScore_RecencyMonotonicity(t *testing.T) {
	now := time.Now()
	older := newScoredKeyword("old", now.Add(-24*time.Hour), 1, entity.TierCommunity)
	newer := newScoredKeyword("new", now.Add(-1*time.Hour), 1, entity.TierCommunity)

	scored := Score([]entity.NormalizedKeyword{older, newer}, now)
	require.Len(t, scored, 2)
	assert.Greater(t, scored[1].Recency, scored[0].Recency)
}

func TestScore_FrequencyCapsAtTenDomains(t *testing.T) {
	now := time.Now()
	kw := newScoredKeyword("many", now, 15, entity.TierCommunity)
	scored := Score([]entity.NormalizedKeyword{kw}, now)
	require.Len(t, scored, 1)
	assert.Equal(t, 1.0, scored[0].Frequency)
}

func TestScore_AuthorityByTier(t *testing.T) {
	now := time.Now()
	curated := newScoredKeyword("curated", now, 1, entity.TierP0Curated)
	community := newScoredKeyword("community", now, 1, entity.TierCommunity)

	scored := Score([]entity.NormalizedKeyword{curated, community}, now)
	require.Len(t, scored, 2)
	assert.Equal(t, 1.0, scored[0].Authority)
	assert.Equal(t, 0.2, scored[1].Authority)
}

func TestRank_NoveltyBonusReordersAndRenumbers(t *testing.T) {
	now := time.Now()
	existing := newScoredKeyword("existing", now, 10, entity.TierP0Curated)
	fresh := newScoredKeyword("fresh", now, 10, entity.TierP0Curated)

	scored := Score([]entity.NormalizedKeyword{existing, fresh}, now)
	prevRank := func(id string) (int, bool) {
		if id == "existing" {
			return 1, true
		}
		return 0, false
	}

	ranked := Rank(scored, prevRank, DefaultTopR)
	require.Len(t, ranked, 2)

	var freshRow, existingRow Scored
	for _, r := range ranked {
		if r.Keyword.KeywordID == "fresh" {
			freshRow = r
		} else {
			existingRow = r
		}
	}
	assert.True(t, freshRow.IsNew)
	assert.Equal(t, 1, freshRow.Rank)
	assert.False(t, existingRow.IsNew)
	assert.Equal(t, 2, existingRow.Rank)
	assert.Equal(t, -1, existingRow.DeltaRank)
}

func TestRank_DeltaRankPositiveWhenRoseInRank(t *testing.T) {
	now := time.Now()
	kw := newScoredKeyword("rose", now, 10, entity.TierP0Curated)
	scored := Score([]entity.NormalizedKeyword{kw}, now)

	prevRank := func(string) (int, bool) { return 5, true }
	ranked := Rank(scored, prevRank, DefaultTopR)

	require.Len(t, ranked, 1)
	assert.Equal(t, 4, ranked[0].DeltaRank)
}

func TestRank_TruncatesToTopR(t *testing.T) {
	now := time.Now()
	var kws []entity.NormalizedKeyword
	for i := 0; i < 25; i++ {
		kws = append(kws, newScoredKeyword(string(rune('a'+i)), now, 1, entity.TierCommunity))
	}
	scored := Score(kws, now)
	ranked := Rank(scored, func(string) (int, bool) { return 0, false }, DefaultTopR)
	assert.Len(t, ranked, DefaultTopR)
}

// TestRank_StableOrderForEqualScores pins the exact rank-1..N ordering for
// a tied-score input set: when every keyword scores identically, Rank must
// still produce a deterministic order (input order preserved) rather than
// one that varies between runs.
func TestRank_StableOrderForEqualScores(t *testing.T) {
	now := time.Now()
	var kws []entity.NormalizedKeyword
	for i := 0; i < 5; i++ {
		kws = append(kws, newScoredKeyword(string(rune('a'+i)), now, 1, entity.TierCommunity))
	}
	scored := Score(kws, now)
	ranked := Rank(scored, func(string) (int, bool) { return 0, false }, DefaultTopR)

	var gotOrder []string
	for _, r := range ranked {
		gotOrder = append(gotOrder, r.Keyword.KeywordID)
	}
	wantOrder := []string{"a", "b", "c", "d", "e"}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("rank order mismatch (-want +got):\n%s", diff)
	}
}
