// Package enricher enriches top-ranked keywords with external search
// results, OG-image backfill, bilingual summaries, title translation, and
// primary-type classification, per spec §4.6.
package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

// SearchResult is one flattened hit from the external search API, tagged
// with the group it was returned under.
type SearchResult struct {
	Type        string // "news", "web", "video", "image"
	Title       string
	URL         string
	Content     string
	PublishedAt string
	Score       float64
}

// SearchClient is the external search boundary the enricher calls against.
// Implementations must tolerate failures by returning an empty slice, per
// spec §7's enrichment-failure taxonomy.
type SearchClient interface {
	Search(ctx context.Context, query string) []SearchResult
}

// tavilySearchRequest mirrors the subset of Tavily's /search request body
// this adapter uses.
type tavilySearchRequest struct {
	APIKey        string   `json:"api_key"`
	Query         string   `json:"query"`
	Topic         string   `json:"topic"`
	TimeRange     string   `json:"time_range"`
	MaxResults    int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilySearchResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	Content          string  `json:"content"`
	Score            float64 `json:"score"`
	PublishedDate    string  `json:"published_date"`
}

const tavilyEndpoint = "https://api.tavily.com/search"

// tavilyClient implements SearchClient against the Tavily search API,
// issuing one query per requested group ({news, web}) and tagging results
// with their group.
type tavilyClient struct {
	apiKey         string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewTavilyClient builds the Tavily-backed search client. An empty apiKey
// yields a client whose Search always returns nil, matching the
// absent-credential skip behavior used throughout the adapter layer.
func NewTavilyClient(apiKey string, logger *slog.Logger) SearchClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &tavilyClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.SearchAPIConfig()),
		retryConfig:    retry.SearchAPIConfig(),
		logger:         logger,
	}
}

// Search queries the "news" (time_range=week) and "web" (time_range=month)
// groups and flattens the results; a failing group contributes nothing.
func (c *tavilyClient) Search(ctx context.Context, query string) []SearchResult {
	if c.apiKey == "" {
		return nil
	}

	var out []SearchResult
	out = append(out, c.searchGroup(ctx, query, "news", "week")...)
	out = append(out, c.searchGroup(ctx, query, "general", "month")...)
	return out
}

func (c *tavilyClient) searchGroup(ctx context.Context, query, topic, timeRange string) []SearchResult {
	groupType := "web"
	if topic == "news" {
		groupType = "news"
	}

	var results []tavilyResult
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doSearch(ctx, query, topic, timeRange)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				c.logger.Warn("search api circuit breaker open", slog.String("topic", topic))
			}
			return err
		}
		results = cbResult.([]tavilyResult)
		return nil
	})
	if retryErr != nil {
		c.logger.Warn("search api group failed", slog.String("topic", topic), slog.Any("error", retryErr))
		return nil
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			Type:        groupType,
			Title:       r.Title,
			URL:         r.URL,
			Content:     r.Content,
			PublishedAt: r.PublishedDate,
			Score:       r.Score,
		})
	}
	return out
}

func (c *tavilyClient) doSearch(ctx context.Context, query, topic, timeRange string) ([]tavilyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	body, err := json.Marshal(tavilySearchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		Topic:      topic,
		TimeRange:  timeRange,
		MaxResults: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("tavily unexpected status: %s", resp.Status)}
	}

	var parsed tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	return parsed.Results, nil
}
