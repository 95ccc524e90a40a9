package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sony/gobreaker"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

const (
	gdeltFetchTimeout = 10 * time.Second
	gdeltDocAPIURL    = "https://api.gdeltproject.org/api/v2/doc/doc"
	gdeltTimeLayout   = "20060102150405" // compact YYYYMMDDhhmmss
)

type gdeltArticle struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	SeenDate    string `json:"seendate"`
	Domain      string `json:"domain"`
	Language    string `json:"language"`
	SocialImage string `json:"socialimage"`
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

// GDELTAdapter queries the GDELT DOC 2.0 API for AI-related articles
// published within the window.
type GDELTAdapter struct {
	query          string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewGDELTAdapter builds the GDELT DOC API adapter for the given query
// (e.g. "artificial intelligence").
func NewGDELTAdapter(query string, logger *slog.Logger) *GDELTAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GDELTAdapter{
		query:          query,
		client:         NewHTTPClient(gdeltFetchTimeout),
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		logger:         logger,
	}
}

func (a *GDELTAdapter) Name() string { return "gdelt" }

func (a *GDELTAdapter) Collect(ctx context.Context, windowHours int) []entity.Item {
	now := time.Now().UTC()
	start := now.Add(-time.Duration(windowHours) * time.Hour)

	fetchCtx, cancel := context.WithTimeout(ctx, gdeltFetchTimeout)
	defer cancel()

	var resp gdeltResponse
	retryErr := retry.WithBackoff(fetchCtx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doQuery(fetchCtx, start, now)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				a.logger.Warn("gdelt circuit breaker open")
			}
			return err
		}
		resp = cbResult.(gdeltResponse)
		return nil
	})
	if retryErr != nil {
		a.logger.Warn("gdelt query failed", slog.Any("error", retryErr))
		return nil
	}

	items := make([]entity.Item, 0, len(resp.Articles))
	for _, art := range resp.Articles {
		if art.Title == "" || art.URL == "" {
			continue
		}
		publishedAt, err := parseGDELTTimestamp(art.SeenDate)
		if err != nil {
			continue
		}
		if publishedAt.Before(start) {
			continue
		}
		items = append(items, entity.Item{
			Title:        art.Title,
			Link:         art.URL,
			PublishedAt:  publishedAt,
			SourceDomain: firstNonEmpty(strings.ToLower(art.Domain), sourceDomain(art.URL)),
			FeedTitle:    "GDELT",
			Tier:         entity.TierP2Raw,
			Lang:         mapGDELTLang(art.Language),
		})
	}
	return items
}

func (a *GDELTAdapter) doQuery(ctx context.Context, start, end time.Time) (gdeltResponse, error) {
	u := fmt.Sprintf(
		"%s?query=%s&mode=artlist&format=json&startdatetime=%s&enddatetime=%s&maxrecords=250",
		gdeltDocAPIURL,
		strings.ReplaceAll(a.query, " ", "%20"),
		start.Format(gdeltTimeLayout),
		end.Format(gdeltTimeLayout),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gdeltResponse{}, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return gdeltResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return gdeltResponse{}, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "gdelt doc api non-2xx"}
	}

	var out gdeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return gdeltResponse{}, err
	}
	return out, nil
}

// parseGDELTTimestamp parses GDELT's compact YYYYMMDDhhmmss timestamp,
// falling back to a tolerant general-purpose parser when the expected
// layout drifts (GDELT has occasionally emitted ISO-8601 variants).
func parseGDELTTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(gdeltTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse gdelt timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func mapGDELTLang(label string) entity.Lang {
	switch strings.ToLower(label) {
	case "korean", "ko":
		return entity.LangKo
	default:
		return entity.LangEn
	}
}
