// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// pageTextLimit caps how much visible page text a candidate carries into
// the pipeline.
const pageTextLimit = 1000

// FetchPageText downloads a page and returns its visible text with
// scripts and styles stripped, truncated to pageTextLimit runes.
func FetchPageText(ctx context.Context, client *http.Client, limiter *rate.Limiter, pageURL, userAgent string) (string, error) {
	if err := wait(ctx, limiter); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	if runes := []rune(text); len(runes) > pageTextLimit {
		text = string(runes[:pageTextLimit])
	}
	return text, nil
}
