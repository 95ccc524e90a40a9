package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDropped_GenericSingleWord(t *testing.T) {
	assert.True(t, isDropped("ai"))
	assert.True(t, isDropped("technology"))
}

func TestIsDropped_AllGenericPhrase(t *testing.T) {
	assert.True(t, isDropped("ai technology platform"))
}

func TestIsDropped_AIAgentWithGenericRemainder(t *testing.T) {
	assert.True(t, isDropped("AI agent platform"))
}

func TestIsDropped_PreservesProductNames(t *testing.T) {
	assert.False(t, isDropped("Claude Opus 4.5"))
	assert.False(t, isDropped("GPT-5"))
}

func TestIsDropped_TooManySignificantWords(t *testing.T) {
	assert.True(t, isDropped("one two three four five six"))
}

func TestIsDropped_HeadlinePattern(t *testing.T) {
	assert.True(t, isDropped(`"새로운 AI 모델 공개했다"`))
}

func TestIsDropped_CounterExpression(t *testing.T) {
	assert.True(t, isDropped("신규 AI 모델 3종"))
}

func TestIsDropped_NonAITopic(t *testing.T) {
	assert.True(t, isDropped("오늘의 날씨"))
}

func TestIsDropped_MixedScriptRemnant(t *testing.T) {
	assert.True(t, isDropped("모델-launch"))
}

func TestIsDropped_FilterLaw_AnyFilterFiring(t *testing.T) {
	cases := []string{"ai", "data platform", "AI agent tool", "한국 오늘 날씨"}
	for _, c := range cases {
		assert.True(t, isDropped(c), "expected %q to be dropped", c)
	}
}
