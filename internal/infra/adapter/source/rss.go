package source

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"trendpulse/internal/config"
	"trendpulse/internal/domain/entity"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

const rssFetchTimeout = 10 * time.Second

// RSSAdapter collects curated RSS/Atom feeds configured in sources.yaml.
// Each feed is fetched concurrently (inner fan-out, settled-join per §5);
// a single feed's failure never aborts the others.
type RSSAdapter struct {
	feeds          []config.FeedTarget
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewRSSAdapter builds the curated-feed adapter over the given targets.
func NewRSSAdapter(feeds []config.FeedTarget, logger *slog.Logger) *RSSAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RSSAdapter{
		feeds:          feeds,
		client:         NewHTTPClient(rssFetchTimeout),
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		logger:         logger,
	}
}

func (a *RSSAdapter) Name() string { return "rss" }

// Collect fetches every configured feed and returns items within the
// window, dropping any missing a title or link as the cross-adapter
// contract requires.
func (a *RSSAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	cutoff := windowCutoff(time.Now(), windowHours)

	resultsCh := make(chan []entity.Item, len(a.feeds))
	var wg sync.WaitGroup
	for _, feed := range a.feeds {
		wg.Add(1)
		go func(feed config.FeedTarget) {
			defer wg.Done()
			resultsCh <- a.fetchFeed(ctx, feed, cutoff)
		}(feed)
	}
	wg.Wait()
	close(resultsCh)

	var items []entity.Item
	for r := range resultsCh {
		items = append(items, r...)
	}
	return items
}

func (a *RSSAdapter) fetchFeed(ctx context.Context, target config.FeedTarget, cutoff time.Time) []entity.Item {
	fetchCtx, cancel := context.WithTimeout(ctx, rssFetchTimeout)
	defer cancel()

	var parsed *gofeed.Feed
	retryErr := retry.WithBackoff(fetchCtx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			fp := gofeed.NewParser()
			fp.UserAgent = "TrendPulseBot/1.0"
			fp.Client = a.client
			return fp.ParseURLWithContext(target.URL, fetchCtx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				a.logger.Warn("rss circuit breaker open", slog.String("url", target.URL))
			}
			return err
		}
		parsed = cbResult.(*gofeed.Feed)
		return nil
	})
	if retryErr != nil {
		a.logger.Warn("rss fetch failed", slog.String("url", target.URL), slog.Any("error", retryErr))
		return nil
	}

	tier := config.ParseTier(target.Tier)
	lang := config.ParseLang(target.Lang)

	items := make([]entity.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it.Title == "" || it.Link == "" {
			continue
		}
		publishedAt := firstNonNil(it.PublishedParsed, it.UpdatedParsed)
		if publishedAt == nil || publishedAt.Before(cutoff) {
			continue
		}
		items = append(items, entity.Item{
			Title:        it.Title,
			Link:         it.Link,
			PublishedAt:  publishedAt.UTC(),
			Summary:      entity.TruncateSummary(firstNonEmpty(it.Description, it.Content)),
			SourceDomain: sourceDomain(it.Link),
			FeedTitle:    target.Title,
			Tier:         tier,
			Lang:         lang,
		})
	}
	return items
}

func firstNonNil(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
