package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trendpulse/internal/domain/entity"
)

// FeedTarget is one RSS/Atom or YouTube-channel fan-out target.
type FeedTarget struct {
	URL   string      `yaml:"url"`
	Title string      `yaml:"title"`
	Tier  string      `yaml:"tier"`
	Lang  string      `yaml:"lang"`
}

// GitHubRepoTarget is one repository tracked by the releases or
// markdown-listing adapters.
type GitHubRepoTarget struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Path   string `yaml:"path,omitempty"` // markdown-listing folder, if applicable
}

// ChangelogTarget is one HTML changelog page scraped with a named
// CSS-selector strategy.
type ChangelogTarget struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Strategy string `yaml:"strategy"`
}

// SourcesConfig is the immutable, startup-parsed adapter-target registry
// that replaces a DB-backed source table: adapters are stateless fan-out
// over a fixed list, not CRUD-managed resources.
type SourcesConfig struct {
	RSSFeeds         []FeedTarget       `yaml:"rss_feeds"`
	YouTubeChannels  []FeedTarget       `yaml:"youtube_channels"`
	GitHubReleases   []GitHubRepoTarget `yaml:"github_releases"`
	GitHubMarkdown   []GitHubRepoTarget `yaml:"github_markdown"`
	Changelogs       []ChangelogTarget  `yaml:"changelogs"`
	SocialDomains    []string           `yaml:"social_domains"`
	DataDomains      []string           `yaml:"data_domains"`
}

// LoadSourcesConfig parses the adapter-target registry from path. A missing
// or empty file degrades to an empty registry (each adapter then legitimately
// returns no items, same as a network failure) rather than a fatal error,
// consistent with this codebase's fail-open configuration style.
func LoadSourcesConfig(path string) (*SourcesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SourcesConfig{}, nil
		}
		return nil, fmt.Errorf("read sources config %s: %w", path, err)
	}

	var cfg SourcesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sources config %s: %w", path, err)
	}
	return &cfg, nil
}

// Tier maps the YAML tier label to the entity.Tier ordinal, defaulting to
// the lowest-authority community tier on an unrecognized label.
func ParseTier(s string) entity.Tier {
	switch s {
	case "P0_CURATED":
		return entity.TierP0Curated
	case "P0_RELEASES":
		return entity.TierP0Releases
	case "P1_CONTEXT":
		return entity.TierP1Context
	case "P2_RAW":
		return entity.TierP2Raw
	case "COMMUNITY":
		return entity.TierCommunity
	default:
		return entity.TierCommunity
	}
}

// ParseLang maps the YAML lang label to entity.Lang, defaulting to English.
func ParseLang(s string) entity.Lang {
	if s == string(entity.LangKo) {
		return entity.LangKo
	}
	return entity.LangEn
}
