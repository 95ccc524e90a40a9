package enricher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadabilityContentFetcher_ExtractsArticleText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "trendpulse-content-fetch/1.0" {
			t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><head><title>Test</title></head><body>
			<article>
				<h1>Headline</h1>
				<p>This is the first paragraph of the article body.</p>
				<p>This is the second paragraph with more detail to extract.</p>
			</article>
		</body></html>`))
	}))
	defer server.Close()

	fetcher := NewReadabilityContentFetcher(nil)
	text, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "first paragraph")
}

func TestReadabilityContentFetcher_NonOKStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewReadabilityContentFetcher(nil)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestReadabilityContentFetcher_RejectsInvalidScheme(t *testing.T) {
	fetcher := NewReadabilityContentFetcher(nil)
	_, err := fetcher.Fetch(context.Background(), "ftp://example.com/article")
	assert.Error(t, err)
}
