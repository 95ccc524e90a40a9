package enricher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"trendpulse/internal/domain/entity"
	"trendpulse/internal/infra/adapter/source"
	"trendpulse/internal/pkg/workerpool"
	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

const (
	ogImageFetchTimeout = 5 * time.Second
	ogImageMaxBodySize  = 2 * 1024 * 1024
	ogImageChunkWidth   = 5
	ogImageMaxTargets   = 10
)

// ogImageScraper resolves a representative image for a source URL by
// scraping its HTML meta tags, per spec §4.6 step 2's priority order.
type ogImageScraper struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

func newOGImageScraper(logger *slog.Logger) *ogImageScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &ogImageScraper{
		client:         source.NewScraperHTTPClient(ogImageFetchTimeout),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OGImageConfig()),
		retryConfig:    retry.WebScraperConfig(),
		logger:         logger,
	}
}

// backfillImages scrapes an OG-image for the first ogImageMaxTargets
// results lacking one, 5 at a time, mutating ImageURL in place. Results
// that already have an image, or that exhaust the target count, are left
// untouched; a failed scrape falls back to the default sentinel image.
func (s *ogImageScraper) backfillImages(ctx context.Context, results []*SourceCandidate) {
	var targets []*SourceCandidate
	for _, r := range results {
		if r.ImageURL == "" {
			targets = append(targets, r)
			if len(targets) >= ogImageMaxTargets {
				break
			}
		}
	}

	workerpool.Run(targets, ogImageChunkWidth, func(c *SourceCandidate) {
		c.ImageURL = s.resolve(ctx, c.URL)
	})

	for _, r := range results {
		if r.ImageURL == "" {
			r.ImageURL = entity.DefaultSentinelImage
		}
	}
}

func (s *ogImageScraper) resolve(ctx context.Context, rawURL string) string {
	if err := source.ValidateURL(rawURL); err != nil {
		return ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, ogImageFetchTimeout)
	defer cancel()

	var doc *goquery.Document
	retryErr := retry.WithBackoff(fetchCtx, s.retryConfig, func() error {
		cbResult, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return s.fetchHTML(fetchCtx, rawURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				s.logger.Warn("og-image circuit breaker open", slog.String("url", rawURL))
			}
			return err
		}
		doc = cbResult.(*goquery.Document)
		return nil
	})
	if retryErr != nil {
		return ""
	}

	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	if href, ok := doc.Find(`link[rel="icon"]`).First().Attr("href"); ok && href != "" {
		return href
	}
	return ""
}

func (s *ogImageScraper) fetchHTML(ctx context.Context, urlStr string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "TrendPulseBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status: %s", resp.Status)}
	}

	limited := io.LimitReader(resp.Body, ogImageMaxBodySize)
	return goquery.NewDocumentFromReader(limited)
}
