// Command diagnose_feeds probes every RSS/Atom feed and YouTube channel
// feed listed in the source registry (config/sources.yaml by default) and
// reports which ones are reachable, empty, or broken. It never touches the
// database: the registry is a static file, not a managed table, so fixes
// are reported as YAML edits rather than SQL statements.
package main

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"trendpulse/internal/config"
)

// FeedDiagnostic represents the diagnostic result for a single feed.
type FeedDiagnostic struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Status        string `json:"status"` // "OK", "HTTP_ERROR", "PARSE_ERROR", "EMPTY", "TIMEOUT", "REDIRECT"
	HTTPCode      int    `json:"http_code"`
	ItemCount     int    `json:"item_count"`
	LatestDate    string `json:"latest_date"`
	ErrorMessage  string `json:"error_message,omitempty"`
	FeedType      string `json:"feed_type"` // "RSS", "ATOM", "UNKNOWN"
	RedirectURL   string `json:"redirect_url,omitempty"`
	ResponseTime  int64  `json:"response_time_ms"`
	ContentLength int64  `json:"content_length"`
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			PubDate string `xml:"pubDate"`
			Link    string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Updated string `xml:"updated"`
		Link    struct {
			Href string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

func main() {
	path := os.Getenv("SOURCES_CONFIG_PATH")
	if path == "" {
		path = "config/sources.yaml"
	}

	cfg, err := config.LoadSourcesConfig(path)
	if err != nil {
		log.Fatalf("failed to load sources config %s: %v", path, err)
	}

	targets := append([]config.FeedTarget{}, cfg.RSSFeeds...)
	targets = append(targets, cfg.YouTubeChannels...)
	if len(targets) == 0 {
		log.Fatalf("no feed targets in %s", path)
	}

	log.Printf("diagnosing %d feed targets from %s...\n", len(targets), path)

	diagnostics := make([]FeedDiagnostic, 0, len(targets))
	for i, t := range targets {
		log.Printf("[%d/%d] diagnosing: %s", i+1, len(targets), t.Title)
		diagnostics = append(diagnostics, diagnoseFeed(t.Title, t.URL, 30*time.Second))
		time.Sleep(500 * time.Millisecond)
	}

	generateReport(diagnostics)
	generateJSONReport(diagnostics)
	generateYAMLFixes(diagnostics)
}

func diagnoseFeed(name, url string, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{Name: name, URL: url}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		diag.Status = "REQUEST_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}
	req.Header.Set("User-Agent", "trendpulse-diagnose-feeds/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	diag.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			diag.Status = "TIMEOUT"
			diag.ErrorMessage = fmt.Sprintf("request timeout after %v", timeout)
		} else {
			diag.Status = "HTTP_ERROR"
			diag.ErrorMessage = err.Error()
		}
		return diag
	}
	defer resp.Body.Close()

	diag.HTTPCode = resp.StatusCode
	diag.ContentLength = resp.ContentLength

	if resp.Request.URL.String() != url {
		diag.RedirectURL = resp.Request.URL.String()
		diag.Status = "REDIRECT"
	}

	if resp.StatusCode != http.StatusOK {
		diag.Status = "HTTP_ERROR"
		diag.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)
		return diag
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		diag.Status = "READ_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	itemCount, latestDate, feedType, parseErr := parseFeed(body)
	diag.FeedType = feedType
	if parseErr != nil {
		diag.Status = "PARSE_ERROR"
		diag.ErrorMessage = parseErr.Error()
		return diag
	}

	diag.ItemCount = itemCount
	diag.LatestDate = latestDate
	if itemCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "feed has no items"
		return diag
	}

	diag.Status = "OK"
	return diag
}

func parseFeed(body []byte) (itemCount int, latestDate, feedType string, err error) {
	var rss rssFeed
	if err := xml.Unmarshal(body, &rss); err == nil && len(rss.Channel.Items) > 0 {
		return len(rss.Channel.Items), rss.Channel.Items[0].PubDate, "RSS", nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(body, &atom); err == nil && len(atom.Entries) > 0 {
		return len(atom.Entries), atom.Entries[0].Updated, "ATOM", nil
	}

	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return 0, "", "UNKNOWN", fmt.Errorf("failed to parse as RSS or Atom, content preview: %s", preview)
}

func writef(f *os.File, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(f, format, args...)
	return err
}

func generateReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.txt")
	if err != nil {
		log.Printf("failed to create report file: %v", err)
		return
	}
	defer f.Close()

	statusCount := make(map[string]int)
	var okCount, errorCount int
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if d.Status == "OK" || d.Status == "REDIRECT" {
			okCount++
		} else {
			errorCount++
		}
	}

	_ = writef(f, "RSS/Atom feed diagnostic report\n")
	_ = writef(f, "generated: %s\n", time.Now().Format(time.RFC3339))
	_ = writef(f, "total targets: %d\n\n", len(diagnostics))
	_ = writef(f, "working: %d (%.1f%%)\n", okCount, float64(okCount)/float64(len(diagnostics))*100)
	_ = writef(f, "broken: %d (%.1f%%)\n\n", errorCount, float64(errorCount)/float64(len(diagnostics))*100)
	for status, count := range statusCount {
		_ = writef(f, "  %s: %d\n", status, count)
	}

	_ = writef(f, "\nworking feeds:\n")
	for _, d := range diagnostics {
		if d.Status == "OK" || d.Status == "REDIRECT" {
			_ = writef(f, "  %s (%s): %s items=%d response=%dms\n", d.Name, d.URL, d.FeedType, d.ItemCount, d.ResponseTime)
			if d.RedirectURL != "" {
				_ = writef(f, "    redirected to: %s\n", d.RedirectURL)
			}
		}
	}

	_ = writef(f, "\nbroken feeds:\n")
	for _, d := range diagnostics {
		if d.Status != "OK" && d.Status != "REDIRECT" {
			_ = writef(f, "  %s (%s): %s — %s\n", d.Name, d.URL, d.Status, d.ErrorMessage)
		}
	}

	log.Println("text report generated: feed_diagnostic_report.txt")
}

func generateJSONReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.json")
	if err != nil {
		log.Printf("failed to create JSON report: %v", err)
		return
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(diagnostics); err != nil {
		log.Printf("failed to write JSON report: %v", err)
		return
	}
	log.Println("JSON report generated: feed_diagnostic_report.json")
}

// generateYAMLFixes writes suggested config/sources.yaml edits. Unlike a
// database-backed source table, the registry has no update statement to
// run — fixes are comments the operator applies by hand.
func generateYAMLFixes(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_fixes.yaml")
	if err != nil {
		log.Printf("failed to create fixes file: %v", err)
		return
	}
	defer f.Close()

	_ = writef(f, "# Suggested config/sources.yaml edits\n# generated: %s\n\n", time.Now().Format(time.RFC3339))

	hasRedirects := false
	for _, d := range diagnostics {
		if d.RedirectURL != "" && d.RedirectURL != d.URL {
			if !hasRedirects {
				_ = writef(f, "# Update redirected feed URLs:\n")
				hasRedirects = true
			}
			_ = writef(f, "#   %s: %s -> %s\n", d.Name, d.URL, d.RedirectURL)
		}
	}

	hasBroken := false
	for _, d := range diagnostics {
		if d.Status != "OK" && d.Status != "REDIRECT" {
			if !hasBroken {
				_ = writef(f, "\n# Remove or fix broken feeds:\n")
				hasBroken = true
			}
			_ = writef(f, "#   %s (%s): %s — %s\n", d.Name, d.URL, d.Status, d.ErrorMessage)
		}
	}

	log.Println("fix suggestions generated: feed_fixes.yaml")
}
