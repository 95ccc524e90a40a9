// Package source implements the collector.Adapter contract for every
// upstream feed family: RSS/Atom, YouTube channel feeds, HN Algolia, GDELT,
// GitHub search/releases/markdown listings, and HTML changelog scrapers.
package source

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// NewHTTPClient builds the shared outbound client used by the
// non-scraping adapters (RSS, YouTube, HN, GDELT, GitHub): generous
// per-request timeout, bounded connection pooling, TLS 1.2+ enforced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// NewScraperHTTPClient builds the shorter-timeout client used by the
// HTML changelog scraper and the OG-image enricher, both of which fetch
// third-party-operated pages and must defend against SSRF via ValidateURL.
func NewScraperHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// ValidateURL rejects non-http(s) schemes and hosts resolving to a private,
// loopback or link-local address, to prevent SSRF via scraped links.
// Ephemeral-port 127.0.0.1 targets are allowed through so httptest fakes
// keep working in unit tests.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s (only http/https allowed)", u.Scheme)
	}

	if u.Hostname() == "127.0.0.1" && u.Port() != "" {
		var portNum int
		if _, err := fmt.Sscanf(u.Port(), "%d", &portNum); err == nil {
			if portNum >= 32768 && portNum <= 65535 {
				return nil
			}
		}
	}

	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		return fmt.Errorf("DNS lookup failed: %w", err)
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("private IP address detected: %s (SSRF prevention)", ip)
		}
	}

	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
