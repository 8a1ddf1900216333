// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scout-engine/internal/httputil"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// productHuntAPIBase is the product directory GraphQL endpoint. Declared
// as a var so tests can substitute an httptest server.
var productHuntAPIBase = "https://api.producthunt.com/v2/api/graphql"

const productHuntQuery = `query($first: Int!) {
  posts(first: $first, order: VOTES) {
    edges { node { name tagline website url } }
  }
}`

// ProductHuntSource lists current top posts from the product directory.
// The directory's API has no free-text search, so the adapter ignores the
// query and relies on downstream scoring to filter what it returns.
type ProductHuntSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Token   string
}

// Name returns the source identifier.
func (s *ProductHuntSource) Name() string { return "producthunt" }

// Discover fetches the top posts and maps them to candidates.
func (s *ProductHuntSource) Discover(ctx context.Context, _ string, cfg types.DiscoveryConfig) ([]types.DiscoveryResult, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if err := wait(ctx, s.Limiter); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"query":     productHuntQuery,
		"variables": map[string]any{"first": maxResults},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, productHuntAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("product directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product directory returned HTTP %d", resp.StatusCode)
	}

	var pr productHuntResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("parsing product directory response: %w", err)
	}

	var results []types.DiscoveryResult
	for _, edge := range pr.Data.Posts.Edges {
		node := edge.Node
		if node.Name == "" {
			continue
		}
		pageURL := node.Website
		if pageURL == "" {
			pageURL = node.URL
		}
		results = append(results, types.DiscoveryResult{
			Title:   node.Name,
			URL:     pageURL,
			Snippet: node.Tagline,
			Source:  "producthunt",
		})
	}
	return results, nil
}

// Product directory GraphQL structures.
type productHuntResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node productHuntNode `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
}

type productHuntNode struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
	Website string `json:"website"`
	URL     string `json:"url"`
}
