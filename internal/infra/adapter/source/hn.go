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

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

const (
	hnFetchTimeout = 8 * time.Second
	hnSearchURL    = "https://hn.algolia.com/api/v1/search_by_date"
)

// hnHit mirrors the subset of Algolia's search_by_date response shape the
// adapter consumes.
type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
	StoryText   string `json:"story_text"`
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

// HNAdapter queries Hacker News' Algolia search API for stories created
// since the window cutoff, rate-limited to be a conservative API citizen.
type HNAdapter struct {
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewHNAdapter builds the HN Algolia search adapter.
func NewHNAdapter(logger *slog.Logger) *HNAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HNAdapter{
		client:         NewHTTPClient(hnFetchTimeout),
		limiter:        rate.NewLimiter(rate.Every(time.Second), 2),
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		logger:         logger,
	}
}

func (a *HNAdapter) Name() string { return "hn" }

func (a *HNAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	fetchCtx, cancel := context.WithTimeout(ctx, hnFetchTimeout)
	defer cancel()

	if err := a.limiter.Wait(fetchCtx); err != nil {
		a.logger.Warn("hn rate limiter wait failed", slog.Any("error", err))
		return nil
	}

	var resp hnSearchResponse
	retryErr := retry.WithBackoff(fetchCtx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doSearch(fetchCtx, cutoff)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				a.logger.Warn("hn circuit breaker open")
			}
			return err
		}
		resp = cbResult.(hnSearchResponse)
		return nil
	})
	if retryErr != nil {
		a.logger.Warn("hn search failed", slog.Any("error", retryErr))
		return nil
	}

	items := make([]entity.Item, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if hit.Title == "" || hit.URL == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, hit.CreatedAt)
		if err != nil {
			continue
		}
		if publishedAt.Before(cutoff) {
			continue
		}
		items = append(items, entity.Item{
			Title:        hit.Title,
			Link:         hit.URL,
			PublishedAt:  publishedAt.UTC(),
			Summary:      entity.TruncateSummary(hit.StoryText),
			SourceDomain: sourceDomain(hit.URL),
			FeedTitle:    "Hacker News",
			Tier:         entity.TierCommunity,
			Lang:         entity.LangEn,
		})
	}
	return items
}

func (a *HNAdapter) doSearch(ctx context.Context, cutoff time.Time) (hnSearchResponse, error) {
	u := fmt.Sprintf("%s?tags=story&numericFilters=created_at_i>%d", hnSearchURL, cutoff.Unix())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return hnSearchResponse{}, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return hnSearchResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return hnSearchResponse{}, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "hn search_by_date non-2xx"}
	}

	var out hnSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return hnSearchResponse{}, err
	}
	return out, nil
}
