// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scout-engine/internal/httputil"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// duckduckgoAPIBase is the keyless HTML search endpoint. Declared as a
// var so tests can substitute an httptest server.
var duckduckgoAPIBase = "https://html.duckduckgo.com/html/"

// DuckDuckGoSource scrapes the HTML search results page. It needs no API
// key, which makes it the fallback when nothing else is configured.
type DuckDuckGoSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the source identifier.
func (s *DuckDuckGoSource) Name() string { return "html" }

// Discover runs one search and scrapes the result blocks.
func (s *DuckDuckGoSource) Discover(ctx context.Context, query string, cfg types.DiscoveryConfig) ([]types.DiscoveryResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if err := wait(ctx, s.Limiter); err != nil {
		return nil, err
	}

	reqURL := duckduckgoAPIBase + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// The endpoint rejects requests without a browser-looking User-Agent.
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("html search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("html search returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html results: %w", err)
	}

	var results []types.DiscoveryResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}

		results = append(results, types.DiscoveryResult{
			Title:   title,
			URL:     unwrapRedirect(href),
			Snippet: snippet,
			Source:  "html",
		})
		return len(results) < maxResults
	})

	return results, nil
}

// unwrapRedirect resolves the endpoint's link-tracking indirection
// ("//duckduckgo.com/l/?uddg=<encoded target>") back to the target URL.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
