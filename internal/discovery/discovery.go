// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery queries public search surfaces for candidate entities
// and returns unified, deduplicated results. Each adapter implements the
// Source interface; a failing source contributes nothing without stopping
// the others.
package discovery

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/pkg/types"
)

const defaultMaxResults = 10

// Source searches a single public surface.
type Source interface {
	Name() string
	Discover(ctx context.Context, query string, cfg types.DiscoveryConfig) ([]types.DiscoveryResult, error)
}

// Sources builds the adapter list cfg enables: Google custom search when
// an API key and engine ID are present, the product directory when a
// token is present, and the keyless HTML fallback when enabled.
func Sources(cfg types.DiscoveryConfig, client *http.Client, limiter *rate.Limiter) []Source {
	var sources []Source
	if cfg.GoogleAPIKey != "" && cfg.GoogleCX != "" {
		sources = append(sources, &GoogleSource{
			Client:  client,
			Limiter: limiter,
			APIKey:  cfg.GoogleAPIKey,
			CX:      cfg.GoogleCX,
		})
	}
	if cfg.ProductHuntToken != "" {
		sources = append(sources, &ProductHuntSource{
			Client:  client,
			Limiter: limiter,
			Token:   cfg.ProductHuntToken,
		})
	}
	if cfg.EnableHTMLFallback {
		sources = append(sources, &DuckDuckGoSource{Client: client, Limiter: limiter})
	}
	return sources
}

// NewLimiter returns the request limiter shared by all sources. A
// non-positive rate selects the default of one request per second.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// wait blocks until the limiter admits one request. A nil limiter admits
// immediately.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// SearchAll fans the query out to every source concurrently and merges
// the responses into one deduplicated list. Failed sources are reported
// through the sink, in source order, after all sources have finished.
func SearchAll(ctx context.Context, runID, query string, sources []Source, cfg types.DiscoveryConfig, sink events.Sink) []types.DiscoveryResult {
	sink = events.OrDiscard(sink)

	perSource := make([][]types.DiscoveryResult, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results, err := src.Discover(gctx, query, cfg)
			if err != nil {
				errs[i] = err
				return nil
			}
			perSource[i] = results
			return nil
		})
	}
	g.Wait()

	var all []types.DiscoveryResult
	for i, src := range sources {
		if errs[i] != nil {
			sink.Emit(events.New(runID, events.TypeSourceFailed, events.SeverityWarning,
				"discovery source failed", map[string]any{
					"source": src.Name(),
					"error":  errs[i].Error(),
				}))
			continue
		}
		all = append(all, perSource[i]...)
	}

	return dedupeResults(all)
}

// dedupeResults merges results that share a normalized URL or title,
// keeping the first occurrence and filling its empty fields from later
// ones.
func dedupeResults(results []types.DiscoveryResult) []types.DiscoveryResult {
	seen := make(map[string]int) // dedup key -> index in deduped
	var deduped []types.DiscoveryResult

	for _, r := range results {
		urlKey := ""
		if k := normalizeURL(r.URL); k != "" {
			urlKey = "url:" + k
		}
		titleKey := ""
		if k := normalizeTitle(r.Title); k != "" {
			titleKey = "title:" + k
		}

		if idx, ok := seen[urlKey]; ok && urlKey != "" {
			mergeInto(&deduped[idx], r)
			continue
		}
		if idx, ok := seen[titleKey]; ok && titleKey != "" {
			mergeInto(&deduped[idx], r)
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		if urlKey != "" {
			seen[urlKey] = idx
		}
		if titleKey != "" {
			seen[titleKey] = idx
		}
	}
	return deduped
}

// mergeInto fills empty fields of dst from src and records the extra
// source.
func mergeInto(dst *types.DiscoveryResult, src types.DiscoveryResult) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
	if dst.Snippet == "" && src.Snippet != "" {
		dst.Snippet = src.Snippet
	}
	if dst.Source != src.Source && src.Source != "" && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// normalizeURL reduces a URL to a host+path comparison key, ignoring
// scheme, "www.", and trailing slashes.
func normalizeURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")
	// Drop query and fragment noise.
	if idx := strings.IndexAny(s, "?#"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSuffix(s, "/")
}

// normalizeTitle returns a lowercased, punctuation-stripped version of
// the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
