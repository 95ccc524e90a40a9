package enricher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
)

func TestOGImageScraper_PrefersOGImageOverTwitterAndIcon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:image" content="https://cdn.example.com/og.png">
			<meta name="twitter:image" content="https://cdn.example.com/twitter.png">
			<link rel="icon" href="/favicon.ico">
		</head><body></body></html>`))
	}))
	defer server.Close()

	scraper := newOGImageScraper(nil)
	got := scraper.resolve(context.Background(), server.URL)
	assert.Equal(t, "https://cdn.example.com/og.png", got)
}

func TestOGImageScraper_FallsBackToTwitterImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta name="twitter:image" content="https://cdn.example.com/twitter.png">
		</head></html>`))
	}))
	defer server.Close()

	scraper := newOGImageScraper(nil)
	got := scraper.resolve(context.Background(), server.URL)
	assert.Equal(t, "https://cdn.example.com/twitter.png", got)
}

func TestOGImageScraper_NoMetaReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head></head></html>`))
	}))
	defer server.Close()

	scraper := newOGImageScraper(nil)
	got := scraper.resolve(context.Background(), server.URL)
	assert.Empty(t, got)
}

func TestBackfillImages_FillsMissingAndLeavesExistingUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="https://cdn.example.com/x.png"></head></html>`))
	}))
	defer server.Close()

	already := &SourceCandidate{URL: server.URL, ImageURL: "https://existing.example.com/pic.png"}
	missing := &SourceCandidate{URL: server.URL, ImageURL: ""}

	scraper := newOGImageScraper(nil)
	scraper.backfillImages(context.Background(), []*SourceCandidate{already, missing})

	assert.Equal(t, "https://existing.example.com/pic.png", already.ImageURL)
	assert.Equal(t, "https://cdn.example.com/x.png", missing.ImageURL)
}

func TestBackfillImages_FailedScrapeUsesSentinelImage(t *testing.T) {
	missing := &SourceCandidate{URL: "http://10.0.0.1/private", ImageURL: ""}

	scraper := newOGImageScraper(nil)
	scraper.backfillImages(context.Background(), []*SourceCandidate{missing})

	assert.Equal(t, entity.DefaultSentinelImage, missing.ImageURL)
}

func TestBackfillImages_CapsAtTenTargets(t *testing.T) {
	var candidates []*SourceCandidate
	for i := 0; i < 15; i++ {
		candidates = append(candidates, &SourceCandidate{URL: "http://10.0.0.1/x", ImageURL: ""})
	}

	scraper := newOGImageScraper(nil)
	scraper.backfillImages(context.Background(), candidates)

	for _, c := range candidates {
		require.Equal(t, entity.DefaultSentinelImage, c.ImageURL)
	}
}
