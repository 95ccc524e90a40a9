package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"trendpulse/internal/config"
	"trendpulse/internal/domain/entity"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

const (
	changelogFetchTimeout = 12 * time.Second
	changelogMaxBodySize  = 10 * 1024 * 1024 // 10MB
)

// changelogStrategy names the CSS selectors used to pull entries out of one
// HTML changelog page. Every tracked source is matched to a strategy by
// name in config/sources.yaml; unknown strategy names fall back to
// "generic".
type changelogStrategy struct {
	ItemSelector  string
	TitleSelector string
	URLSelector   string
	DateSelector  string
	DateFormat    string
}

var changelogStrategies = map[string]changelogStrategy{
	"generic": {
		ItemSelector:  "article, li.changelog-entry, div.changelog-entry",
		TitleSelector: "h1, h2, h3, .title",
		URLSelector:   "a",
		DateSelector:  "time, .date",
		DateFormat:    "",
	},
	"openai-blog": {
		ItemSelector:  "a.ui-link",
		TitleSelector: "div.f-post-card__title, h3",
		URLSelector:   "",
		DateSelector:  "div.f-post-card__date, time",
		DateFormat:    "Jan 2, 2006",
	},
	"anthropic-news": {
		ItemSelector:  "a[href*='/news/']",
		TitleSelector: "h3, .PostCard_title",
		URLSelector:   "",
		DateSelector:  "time, .PostCard_date",
		DateFormat:    "Jan 2, 2006",
	},
}

func resolveStrategy(name string) changelogStrategy {
	if s, ok := changelogStrategies[name]; ok {
		return s
	}
	return changelogStrategies["generic"]
}

// ChangelogAdapter scrapes a fixed list of HTML changelog/news pages using
// a per-source CSS-selector strategy, SSRF-guarded via ValidateURL. Only
// entries dated after the window cutoff survive.
type ChangelogAdapter struct {
	targets        []config.ChangelogTarget
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewChangelogAdapter builds the HTML changelog scraper adapter.
func NewChangelogAdapter(targets []config.ChangelogTarget, logger *slog.Logger) *ChangelogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangelogAdapter{
		targets:        targets,
		client:         NewScraperHTTPClient(changelogFetchTimeout),
		circuitBreaker: circuitbreaker.New(circuitbreaker.WebScraperConfig()),
		retryConfig:    retry.WebScraperConfig(),
		logger:         logger,
	}
}

func (a *ChangelogAdapter) Name() string { return "changelog" }

func (a *ChangelogAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	cutoff := windowCutoff(time.Now(), windowHours)

	var items []entity.Item
	for _, target := range a.targets {
		items = append(items, a.scrapeTarget(ctx, target, cutoff)...)
	}
	return items
}

func (a *ChangelogAdapter) scrapeTarget(ctx context.Context, target config.ChangelogTarget, cutoff time.Time) []entity.Item {
	if err := ValidateURL(target.URL); err != nil {
		a.logger.Warn("changelog target rejected", slog.String("name", target.Name), slog.Any("error", err))
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, changelogFetchTimeout)
	defer cancel()

	var doc *goquery.Document
	retryErr := retry.WithBackoff(fetchCtx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.fetchHTML(fetchCtx, target.URL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				a.logger.Warn("changelog circuit breaker open", slog.String("name", target.Name))
			}
			return err
		}
		doc = cbResult.(*goquery.Document)
		return nil
	})
	if retryErr != nil {
		a.logger.Warn("changelog fetch failed", slog.String("name", target.Name), slog.Any("error", retryErr))
		return nil
	}

	strategy := resolveStrategy(target.Strategy)
	domain := sourceDomain(target.URL)

	var items []entity.Item
	doc.Find(strategy.ItemSelector).Each(func(i int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(strategy.TitleSelector).First().Text())
		if title == "" {
			return
		}

		link := ""
		if strategy.URLSelector == "" {
			if href, ok := sel.Attr("href"); ok {
				link = href
			}
		} else if href, ok := sel.Find(strategy.URLSelector).First().Attr("href"); ok {
			link = href
		}
		link = makeAbsoluteChangelogURL(strings.TrimSpace(link), target.URL)
		if link == "" {
			return
		}

		dateStr := strings.TrimSpace(sel.Find(strategy.DateSelector).First().Text())
		publishedAt := parseChangelogDate(dateStr, strategy.DateFormat)
		if publishedAt.Before(cutoff) {
			return
		}

		items = append(items, entity.Item{
			Title:        title,
			Link:         link,
			PublishedAt:  publishedAt.UTC(),
			SourceDomain: domain,
			FeedTitle:    target.Name,
			Tier:         entity.TierP1Context,
			Lang:         entity.LangEn,
		})
	})
	return items
}

func (a *ChangelogAdapter) fetchHTML(ctx context.Context, urlStr string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "TrendPulseBot/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status: %s", resp.Status)}
	}

	limited := io.LimitReader(resp.Body, changelogMaxBodySize)
	doc, err := goquery.NewDocumentFromReader(limited)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func makeAbsoluteChangelogURL(urlStr, base string) string {
	if urlStr == "" {
		return ""
	}
	if strings.HasPrefix(urlStr, "http://") || strings.HasPrefix(urlStr, "https://") {
		return urlStr
	}
	prefixEnd := strings.Index(base[len("https://"):], "/")
	var prefix string
	if prefixEnd == -1 {
		prefix = strings.TrimRight(base, "/")
	} else {
		schemeLen := strings.Index(base, "://") + 3
		prefix = base[:schemeLen+prefixEnd]
	}
	return prefix + "/" + strings.TrimLeft(urlStr, "/")
}

func parseChangelogDate(dateStr, format string) time.Time {
	if dateStr == "" {
		return time.Now()
	}
	if format != "" {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t
		}
	}
	fallbacks := []string{
		"2006-01-02",
		time.RFC3339,
		"Jan 2, 2006",
		"January 2, 2006",
	}
	for _, f := range fallbacks {
		if t, err := time.Parse(f, dateStr); err == nil {
			return t
		}
	}
	slog.Warn("failed to parse changelog date, using current time", slog.String("date_str", dateStr))
	return time.Now()
}
