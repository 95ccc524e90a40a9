package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"trendpulse/internal/config"
	"trendpulse/internal/domain/entity"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

const (
	githubFetchTimeout = 10 * time.Second
	githubAPIVersion   = "2022-11-28"
)

// githubClient is the shared low-level transport every GitHub-backed
// adapter uses: bearer auth, versioned API header, rate-limited to stay
// under GitHub's documented secondary limits, and 404-tolerant.
type githubClient struct {
	token          string
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

func newGithubClient(token string, logger *slog.Logger) *githubClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &githubClient{
		token:          token,
		client:         NewHTTPClient(githubFetchTimeout),
		limiter:        rate.NewLimiter(rate.Every(time.Second/2), 5),
		circuitBreaker: circuitbreaker.New(circuitbreaker.GitHubAPIConfig()),
		retryConfig:    retry.GitHubAPIConfig(),
		logger:         logger,
	}
}

// get performs an authenticated GET against the GitHub REST API, decoding
// the JSON body into out. A 404 response is treated as "no data" (nil
// error, untouched out) per the cross-adapter "honor 404 as empty" rule.
func (c *githubClient) get(ctx context.Context, url string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doGet(ctx, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				c.logger.Warn("github circuit breaker open", slog.String("url", url))
			}
			return err
		}
		body := cbResult.([]byte)
		if body == nil {
			return nil // 404, treated as empty
		}
		return json.Unmarshal(body, out)
	})
	return retryErr
}

func (c *githubClient) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "github api non-2xx"}
	}

	buf := make([]byte, 0, 65536)
	tmp := make([]byte, 8192)
	for {
		n, readErr := resp.Body.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if readErr != nil {
			break
		}
	}
	return buf, nil
}

type githubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}

// GitHubReleasesAdapter collects release announcements for a fixed list of
// tracked repositories. Releases are tier P0_RELEASES per spec §4.1.
type GitHubReleasesAdapter struct {
	repos  []config.GitHubRepoTarget
	client *githubClient
}

// NewGitHubReleasesAdapter builds the releases adapter.
func NewGitHubReleasesAdapter(repos []config.GitHubRepoTarget, token string, logger *slog.Logger) *GitHubReleasesAdapter {
	return &GitHubReleasesAdapter{repos: repos, client: newGithubClient(token, logger)}
}

func (a *GitHubReleasesAdapter) Name() string { return "github-releases" }

// Collect returns an empty set when no token is configured, per §6's
// "GITHUB_TOKEN ... absent → skip" rule.
func (a *GitHubReleasesAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	if a.client.token == "" {
		return nil
	}
	cutoff := windowCutoff(time.Now(), windowHours)

	var items []entity.Item
	for _, repo := range a.repos {
		fetchCtx, cancel := context.WithTimeout(ctx, githubFetchTimeout)
		var releases []githubRelease
		url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases?per_page=10", repo.Owner, repo.Repo)
		if err := a.client.get(fetchCtx, url, &releases); err != nil {
			a.client.logger.Warn("github releases fetch failed", slog.String("repo", repo.Repo), slog.Any("error", err))
			cancel()
			continue
		}
		cancel()

		for _, rel := range releases {
			publishedAt, err := time.Parse(time.RFC3339, rel.PublishedAt)
			if err != nil || publishedAt.Before(cutoff) {
				continue
			}
			title := firstNonEmpty(rel.Name, rel.TagName)
			if title == "" || rel.HTMLURL == "" {
				continue
			}
			items = append(items, entity.Item{
				Title:        fmt.Sprintf("%s/%s %s", repo.Owner, repo.Repo, title),
				Link:         rel.HTMLURL,
				PublishedAt:  publishedAt.UTC(),
				Summary:      entity.TruncateSummary(rel.Body),
				SourceDomain: "github.com",
				FeedTitle:    fmt.Sprintf("%s/%s releases", repo.Owner, repo.Repo),
				Tier:         entity.TierP0Releases,
				Lang:         entity.LangEn,
			})
		}
	}
	return items
}

type githubSearchResult struct {
	Items []struct {
		Title     string `json:"title"`
		HTMLURL   string `json:"html_url"`
		CreatedAt string `json:"created_at"`
		Body      string `json:"body"`
	} `json:"items"`
}

// GitHubSearchAdapter queries GitHub's issue/repo search for AI-related
// results, tagged COMMUNITY per spec §4.1.
type GitHubSearchAdapter struct {
	query  string
	client *githubClient
}

// NewGitHubSearchAdapter builds the GitHub search adapter for the given
// query string (e.g. "artificial intelligence in:title").
func NewGitHubSearchAdapter(query, token string, logger *slog.Logger) *GitHubSearchAdapter {
	return &GitHubSearchAdapter{query: query, client: newGithubClient(token, logger)}
}

func (a *GitHubSearchAdapter) Name() string { return "github-search" }

func (a *GitHubSearchAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	if a.client.token == "" {
		return nil
	}
	cutoff := windowCutoff(time.Now(), windowHours)

	fetchCtx, cancel := context.WithTimeout(ctx, githubFetchTimeout)
	defer cancel()

	var result githubSearchResult
	dateFilter := fmt.Sprintf("created:>=%s", cutoff.Format("2006-01-02"))
	url := fmt.Sprintf("https://api.github.com/search/issues?q=%s+%s&sort=created&order=desc&per_page=50",
		a.query, dateFilter)
	if err := a.client.get(fetchCtx, url, &result); err != nil {
		a.client.logger.Warn("github search failed", slog.Any("error", err))
		return nil
	}

	items := make([]entity.Item, 0, len(result.Items))
	for _, it := range result.Items {
		if it.Title == "" || it.HTMLURL == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, it.CreatedAt)
		if err != nil || publishedAt.Before(cutoff) {
			continue
		}
		items = append(items, entity.Item{
			Title:        it.Title,
			Link:         it.HTMLURL,
			PublishedAt:  publishedAt.UTC(),
			Summary:      entity.TruncateSummary(it.Body),
			SourceDomain: "github.com",
			FeedTitle:    "GitHub Search",
			Tier:         entity.TierCommunity,
			Lang:         entity.LangEn,
		})
	}
	return items
}
