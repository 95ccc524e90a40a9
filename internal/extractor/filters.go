package extractor

import (
	"regexp"
	"strings"
)

// genericWords is the exact generic-term set used by filter steps 1 and 2:
// keywords made up entirely of these words carry no distinguishing signal
// and are hard-dropped.
var genericWords = map[string]struct{}{
	"ai": {}, "artificial": {}, "intelligence": {}, "technology": {}, "tech": {},
	"solution": {}, "solutions": {}, "service": {}, "services": {}, "platform": {},
	"platforms": {}, "tool": {}, "tools": {}, "model": {}, "models": {}, "system": {},
	"systems": {}, "data": {}, "digital": {}, "innovation": {}, "future": {},
	"news": {}, "update": {}, "updates": {}, "report": {}, "industry": {},
	"인공지능": {}, "기술": {}, "서비스": {}, "플랫폼": {}, "솔루션": {}, "도구": {},
	"모델": {}, "시스템": {}, "디지털": {}, "혁신": {}, "미래": {}, "소식": {},
	"업데이트": {}, "산업": {}, "기업": {}, "보고서": {},
}

// shortStopwords is used by the matcher's multi-word tokenizer (spec §4.4),
// not the extractor filters, but lives alongside genericWords since both
// enumerate fixed linguistic exception sets.
var shortStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "of": {}, "a": {}, "an": {}, "to": {},
	"는": {}, "은": {}, "이": {}, "가": {}, "을": {}, "를": {}, "의": {}, "에": {}, "와": {}, "과": {},
}

// koreanParticles strips trailing case/topic markers so word-count filters
// operate on significant tokens, not grammatical suffixes.
var koreanParticles = []string{"은", "는", "이", "가", "을", "를", "의", "에서", "에게", "와", "과", "도", "만"}

var (
	aiAgentPattern = regexp.MustCompile(`(?i)^ai[ -](agents?|에이전트)\b`)
	aiBasedPattern = regexp.MustCompile(`(?i)^ai[ -](기반|모델|투자|학습용|활용|powered|based|driven|enabled)\b`)

	// koreanHeadlineEndings matches common sentence-final verb endings that
	// mark a phrase as a truncated headline rather than a keyword.
	koreanHeadlineEndings = regexp.MustCompile(`(다|음|습니다|됐다|한다|됐음|했다|밝혔다|전망이다)$`)
	quoteMarkPattern      = regexp.MustCompile(`["'“”‘’「」『』]`)
	counterExprPattern    = regexp.MustCompile(`\d+\s*(종|개|건)\b`)

	// mixedScriptRemnant matches a transliteration artifact: a Hangul run
	// directly hyphenated against a Latin run (either order), left over
	// when a bilingual title is split mid-token.
	mixedScriptRemnant = regexp.MustCompile(`[가-힣]+-[A-Za-z]+|[A-Za-z]+-[가-힣]+`)
)

var nonAITopicBlocklist = map[string]struct{}{
	"날씨": {}, "스포츠": {}, "축구": {}, "야구": {}, "연예": {}, "드라마": {}, "증시": {},
	"부동산": {}, "weather": {}, "sports": {}, "celebrity": {}, "horoscope": {},
}

// isGeneric reports whether a single lowercased word belongs to the fixed
// generic-term set.
func isGeneric(word string) bool {
	_, ok := genericWords[strings.ToLower(word)]
	return ok
}

// isAllGenericPhrase reports whether every word of length ≥3 in s belongs
// to the generic set (spec §4.3 step 6, filter 2).
func isAllGenericPhrase(words []string) bool {
	sawSignificant := false
	for _, w := range words {
		if len([]rune(w)) < 3 {
			continue
		}
		sawSignificant = true
		if !isGeneric(w) {
			return false
		}
	}
	return sawSignificant
}

// remainderAllGeneric checks whether every word after the matched prefix
// length in words is generic, used by the AI-agent and AI-based patterns
// (filters 3 and 4), which only fire when the non-prefix remainder adds no
// distinguishing signal.
func remainderAllGeneric(words []string, prefixWordCount int) bool {
	if prefixWordCount >= len(words) {
		return true
	}
	return isAllGenericPhrase(words[prefixWordCount:]) || len(words)-prefixWordCount == 0
}

// stripParticles removes a fixed Korean particle from the trailing edge of
// a significant word, if present, before the word is counted.
func stripParticles(word string) string {
	for _, p := range koreanParticles {
		if strings.HasSuffix(word, p) && len([]rune(word)) > len([]rune(p)) {
			return strings.TrimSuffix(word, p)
		}
	}
	return word
}

// significantWordCount counts words after particle-stripping and
// stopword/short-token removal, for the ">4 significant words" filter.
func significantWordCount(words []string) int {
	count := 0
	for _, w := range words {
		stripped := stripParticles(w)
		lower := strings.ToLower(stripped)
		if len([]rune(stripped)) < 2 {
			continue
		}
		if _, stop := shortStopwords[lower]; stop {
			continue
		}
		count++
	}
	return count
}

func isHeadlinePattern(s string) bool {
	if quoteMarkPattern.MatchString(s) {
		return true
	}
	if counterExprPattern.MatchString(s) {
		return true
	}
	return koreanHeadlineEndings.MatchString(strings.TrimSpace(s))
}

func isNonAITopic(words []string) bool {
	for _, w := range words {
		if _, bad := nonAITopicBlocklist[strings.ToLower(w)]; bad {
			return true
		}
	}
	return false
}

// isDropped applies the §4.3 step 6 filter chain in order, stopping and
// returning true at the first match.
func isDropped(canonical string) bool {
	words := strings.Fields(canonical)
	if len(words) == 0 {
		return true
	}

	if isAllGenericWord(canonical) {
		return true
	}
	if isAllGenericPhrase(words) {
		return true
	}
	if aiAgentPattern.MatchString(canonical) {
		prefixWords := len(strings.Fields(aiAgentPattern.FindString(canonical)))
		if remainderAllGeneric(words, prefixWords) {
			return true
		}
	}
	if aiBasedPattern.MatchString(canonical) {
		prefixWords := len(strings.Fields(aiBasedPattern.FindString(canonical)))
		if remainderAllGeneric(words, prefixWords) {
			return true
		}
	}
	if significantWordCount(words) > 4 {
		return true
	}
	if isHeadlinePattern(canonical) {
		return true
	}
	if isNonAITopic(words) {
		return true
	}
	if mixedScriptRemnant.MatchString(canonical) {
		return true
	}
	return false
}

// isAllGenericWord reports whether the whole canonical string, taken as a
// single token, is an exact generic-term match (filter 1).
func isAllGenericWord(canonical string) bool {
	trimmed := strings.TrimSpace(canonical)
	if strings.Contains(trimmed, " ") {
		return false
	}
	return isGeneric(trimmed)
}
