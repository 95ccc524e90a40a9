package enricher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"trendpulse/internal/infra/adapter/source"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

// maxFetchedBodyBytes bounds the HTML a content fetch will read, guarding
// against memory exhaustion from an unexpectedly large page.
const maxFetchedBodyBytes = 4 << 20

// ContentFetcher retrieves and extracts the readable body of an article
// page, used to give the summarizer more than a short search snippet when
// one is available.
type ContentFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// readabilityFetcher implements ContentFetcher with Mozilla Readability
// extraction over an SSRF-guarded client, the same defenses the source
// adapters' scraper client applies to third-party pages.
type readabilityFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewReadabilityContentFetcher builds a ContentFetcher suitable for
// backfilling short Tavily snippets before summarization.
func NewReadabilityContentFetcher(logger *slog.Logger) ContentFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &readabilityFetcher{
		client: source.NewScraperHTTPClient(10 * time.Second),
		circuitBreaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "content-fetch",
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
		retryConfig: retry.Config{MaxAttempts: 2, InitialDelay: 200 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2},
		logger:      logger,
	}
}

func (f *readabilityFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := source.ValidateURL(pageURL); err != nil {
		return "", fmt.Errorf("validate content url: %w", err)
	}

	var body string
	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.fetchOnce(ctx, pageURL)
		})
		if err != nil {
			return err
		}
		body = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		f.logger.Warn("content fetch failed", slog.String("url", pageURL), slog.Any("error", retryErr))
		return "", retryErr
	}
	return body, nil
}

func (f *readabilityFetcher) fetchOnce(ctx context.Context, pageURL string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "trendpulse-content-fetch/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchedBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(htmlBytes) > maxFetchedBodyBytes {
		return "", fmt.Errorf("response exceeds %d bytes", maxFetchedBodyBytes)
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}
	if resp.Request != nil && resp.Request.URL != nil {
		parsedURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extract readable content: %w", err)
	}
	if article.TextContent != "" {
		return article.TextContent, nil
	}
	if article.Content != "" {
		return article.Content, nil
	}
	return "", fmt.Errorf("no readable content found")
}
