package entity

import "time"

// KeywordCandidate accumulates supporting evidence for a keyword surviving
// extraction, as the matcher scans items for occurrences.
type KeywordCandidate struct {
	Text     string
	Count    int
	Domains  map[string]struct{}
	LatestAt time.Time
	Tier     Tier

	// Supporters holds every matching Item in collector merge order (fixed
	// tier-priority, first-occurrence), which doubles as the enricher's
	// position ordering for source selection and primary-type voting.
	Supporters []Item
}

// NewKeywordCandidate starts an empty candidate, ready for the matcher to
// accumulate support into via AddSupport.
func NewKeywordCandidate(text string) *KeywordCandidate {
	return &KeywordCandidate{
		Text:    text,
		Domains: make(map[string]struct{}),
		Tier:    tierUnknown,
	}
}

// AddSupport records one matching Item: increments Count, records its
// domain, upgrades LatestAt and Tier to the stronger of current and item,
// and appends it to Supporters.
func (c *KeywordCandidate) AddSupport(it Item) {
	c.Count++
	if it.SourceDomain != "" {
		c.Domains[it.SourceDomain] = struct{}{}
	}
	if it.PublishedAt.After(c.LatestAt) {
		c.LatestAt = it.PublishedAt
	}
	if it.Tier.Better(c.Tier) {
		c.Tier = it.Tier
	}
	c.Supporters = append(c.Supporters, it)
}

// DomainCount reports the number of distinct supporting domains.
func (c *KeywordCandidate) DomainCount() int {
	return len(c.Domains)
}

// NormalizedKeyword is a keyword surviving the extractor's filter chain,
// identified by a stable slug and carrying its merged supporting candidate.
type NormalizedKeyword struct {
	KeywordID string
	Keyword   string
	Aliases   []string
	Candidate *KeywordCandidate
}
