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

const youtubeFetchTimeout = 10 * time.Second

// YouTubeAdapter collects entries from per-channel YouTube Atom feeds.
// Language is not read from config: it is derived per spec §4.1 from the
// presence of Hangul codepoints in the channel (feed) title.
type YouTubeAdapter struct {
	channels       []config.FeedTarget
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewYouTubeAdapter builds the channel-feed adapter over the given targets.
func NewYouTubeAdapter(channels []config.FeedTarget, logger *slog.Logger) *YouTubeAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTubeAdapter{
		channels:       channels,
		client:         NewHTTPClient(youtubeFetchTimeout),
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		logger:         logger,
	}
}

func (a *YouTubeAdapter) Name() string { return "youtube" }

func (a *YouTubeAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	cutoff := windowCutoff(time.Now(), windowHours)

	resultsCh := make(chan []entity.Item, len(a.channels))
	var wg sync.WaitGroup
	for _, ch := range a.channels {
		wg.Add(1)
		go func(ch config.FeedTarget) {
			defer wg.Done()
			resultsCh <- a.fetchChannel(ctx, ch, cutoff)
		}(ch)
	}
	wg.Wait()
	close(resultsCh)

	var items []entity.Item
	for r := range resultsCh {
		items = append(items, r...)
	}
	return items
}

func (a *YouTubeAdapter) fetchChannel(ctx context.Context, target config.FeedTarget, cutoff time.Time) []entity.Item {
	fetchCtx, cancel := context.WithTimeout(ctx, youtubeFetchTimeout)
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
				a.logger.Warn("youtube circuit breaker open", slog.String("url", target.URL))
			}
			return err
		}
		parsed = cbResult.(*gofeed.Feed)
		return nil
	})
	if retryErr != nil {
		a.logger.Warn("youtube fetch failed", slog.String("url", target.URL), slog.Any("error", retryErr))
		return nil
	}

	tier := config.ParseTier(target.Tier)
	channelName := firstNonEmpty(target.Title, parsed.Title)
	lang := entity.LangEn
	if hasHangul(channelName) {
		lang = entity.LangKo
	}

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
			Summary:      entity.TruncateSummary(it.Description),
			SourceDomain: sourceDomain(it.Link),
			FeedTitle:    channelName,
			Tier:         tier,
			Lang:         lang,
		})
	}
	return items
}
