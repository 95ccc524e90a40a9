package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"trendpulse/internal/config"
	"trendpulse/internal/domain/entity"
)

var (
	mdLinkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	mdDatePattern   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

type githubContentsEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

type githubFileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GitHubMarkdownAdapter lists a tracked repo folder, picks the most
// recently dated markdown files within the window (latest 3), and
// regex-extracts [title](url) link pairs from their bodies. Every surviving
// link is tagged P0_CURATED, per spec §4.1.
type GitHubMarkdownAdapter struct {
	repos         []config.GitHubRepoTarget
	socialDomains map[string]struct{}
	client        *githubClient
}

// NewGitHubMarkdownAdapter builds the markdown-listing adapter.
func NewGitHubMarkdownAdapter(repos []config.GitHubRepoTarget, socialDomains []string, token string, logger *slog.Logger) *GitHubMarkdownAdapter {
	set := make(map[string]struct{}, len(socialDomains))
	for _, d := range socialDomains {
		set[strings.ToLower(d)] = struct{}{}
	}
	return &GitHubMarkdownAdapter{
		repos:         repos,
		socialDomains: set,
		client:        newGithubClient(token, logger),
	}
}

func (a *GitHubMarkdownAdapter) Name() string { return "github-markdown" }

func (a *GitHubMarkdownAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	if a.client.token == "" {
		return nil
	}
	cutoff := windowCutoff(time.Now(), windowHours)

	var items []entity.Item
	for _, repo := range a.repos {
		items = append(items, a.collectRepo(ctx, repo, cutoff)...)
	}
	return items
}

func (a *GitHubMarkdownAdapter) collectRepo(ctx context.Context, repo config.GitHubRepoTarget, cutoff time.Time) []entity.Item {
	fetchCtx, cancel := context.WithTimeout(ctx, githubFetchTimeout)
	defer cancel()

	var entries []githubContentsEntry
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s", repo.Owner, repo.Repo, repo.Path)
	if err := a.client.get(fetchCtx, url, &entries); err != nil {
		a.client.logger.Warn("github markdown listing failed", slog.String("repo", repo.Repo), slog.Any("error", err))
		return nil
	}

	type dated struct {
		entry githubContentsEntry
		date  time.Time
	}
	var candidates []dated
	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(e.Name, ".md") {
			continue
		}
		m := mdDatePattern.FindString(e.Name)
		if m == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", m)
		if err != nil || d.Before(cutoff) {
			continue
		}
		candidates = append(candidates, dated{entry: e, date: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].date.After(candidates[j].date) })
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	var items []entity.Item
	for _, c := range candidates {
		items = append(items, a.extractLinks(ctx, repo, c.entry, c.date)...)
	}
	return items
}

func (a *GitHubMarkdownAdapter) extractLinks(ctx context.Context, repo config.GitHubRepoTarget, entry githubContentsEntry, publishedAt time.Time) []entity.Item {
	fetchCtx, cancel := context.WithTimeout(ctx, githubFetchTimeout)
	defer cancel()

	var fc githubFileContent
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s", repo.Owner, repo.Repo, entry.Path)
	if err := a.client.get(fetchCtx, url, &fc); err != nil {
		a.client.logger.Warn("github markdown file fetch failed", slog.String("path", entry.Path), slog.Any("error", err))
		return nil
	}
	if fc.Encoding != "base64" || fc.Content == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(fc.Content, "\n", ""))
	if err != nil {
		return nil
	}

	var items []entity.Item
	for _, m := range mdLinkPattern.FindAllStringSubmatch(string(raw), -1) {
		title, link := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if title == "" || link == "" || !strings.HasPrefix(link, "http") {
			continue
		}
		domain := sourceDomain(link)
		if _, social := a.socialDomains[domain]; social {
			continue
		}
		items = append(items, entity.Item{
			Title:        title,
			Link:         link,
			PublishedAt:  publishedAt.UTC(),
			SourceDomain: domain,
			FeedTitle:    fmt.Sprintf("%s/%s", repo.Owner, repo.Repo),
			Tier:         entity.TierP0Curated,
			Lang:         entity.LangEn,
		})
	}
	return items
}
