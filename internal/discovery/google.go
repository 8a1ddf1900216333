// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scout-engine/internal/httputil"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// googleAPIBase is the Google Programmable Search endpoint. Declared as a
// var so tests can substitute an httptest server.
var googleAPIBase = "https://www.googleapis.com/customsearch/v1"

// googleMaxPerRequest is the API's hard cap on the num parameter.
const googleMaxPerRequest = 10

// GoogleSource queries the Google Programmable Search REST API.
type GoogleSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
	APIKey  string
	CX      string
}

// Name returns the source identifier.
func (s *GoogleSource) Name() string { return "google" }

// Discover runs one search request and maps the returned items.
func (s *GoogleSource) Discover(ctx context.Context, query string, cfg types.DiscoveryConfig) ([]types.DiscoveryResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > googleMaxPerRequest {
		maxResults = googleMaxPerRequest
	}

	if err := wait(ctx, s.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"key": {s.APIKey},
		"cx":  {s.CX},
		"q":   {query},
		"num": {strconv.Itoa(maxResults)},
	}
	reqURL := googleAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("google search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search returned HTTP %d", resp.StatusCode)
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing google response: %w", err)
	}

	var results []types.DiscoveryResult
	for _, item := range gr.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		results = append(results, types.DiscoveryResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  "google",
		})
	}
	return results, nil
}

// Google custom search JSON structures.
type googleResponse struct {
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
