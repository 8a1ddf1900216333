// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/pkg/types"
)

func testCfg() types.DiscoveryConfig {
	return types.DiscoveryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxResults: 10,
	}
}

// fakeSource returns canned results or a canned error.
type fakeSource struct {
	name    string
	results []types.DiscoveryResult
	err     error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Discover(context.Context, string, types.DiscoveryConfig) ([]types.DiscoveryResult, error) {
	return f.results, f.err
}

// --- SearchAll ---

func TestSearchAllMergesSources(t *testing.T) {
	sources := []Source{
		&fakeSource{name: "a", results: []types.DiscoveryResult{
			{Title: "Acme Robotics", URL: "https://acme.example.com", Source: "a"},
		}},
		&fakeSource{name: "b", results: []types.DiscoveryResult{
			{Title: "Globex", URL: "https://globex.example.com", Source: "b"},
		}},
	}

	got := SearchAll(context.Background(), "run_1", "robots", sources, testCfg(), nil)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
}

func TestSearchAllToleratesFailedSource(t *testing.T) {
	sink := events.NewMemorySink()
	sources := []Source{
		&fakeSource{name: "broken", err: fmt.Errorf("HTTP 500")},
		&fakeSource{name: "ok", results: []types.DiscoveryResult{
			{Title: "Acme Robotics", URL: "https://acme.example.com", Source: "ok"},
		}},
	}

	got := SearchAll(context.Background(), "run_1", "robots", sources, testCfg(), sink)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 from the healthy source", len(got))
	}

	failed := sink.ByType(events.TypeSourceFailed)
	if len(failed) != 1 {
		t.Fatalf("emitted %d source_failed events, want 1", len(failed))
	}
	if failed[0].Fields["source"] != "broken" {
		t.Errorf("source field = %v, want broken", failed[0].Fields["source"])
	}
}

func TestSearchAllDeduplicatesAcrossSources(t *testing.T) {
	sources := []Source{
		&fakeSource{name: "a", results: []types.DiscoveryResult{
			{Title: "Acme Robotics", URL: "https://www.acme.example.com/", Source: "a"},
		}},
		&fakeSource{name: "b", results: []types.DiscoveryResult{
			{Title: "Acme Robotics - Home", URL: "http://acme.example.com", Snippet: "Warehouse automation", Source: "b"},
		}},
	}

	got := SearchAll(context.Background(), "run_1", "robots", sources, testCfg(), nil)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 after URL dedup", len(got))
	}
	// The survivor keeps its own fields and absorbs the empty ones.
	if got[0].Snippet != "Warehouse automation" {
		t.Errorf("Snippet = %q, want merged snippet", got[0].Snippet)
	}
	if got[0].Source != "a,b" {
		t.Errorf("Source = %q, want a,b", got[0].Source)
	}
}

// --- dedup helpers ---

func TestDedupeResultsByTitle(t *testing.T) {
	in := []types.DiscoveryResult{
		{Title: "Acme Robotics!", URL: "https://one.example.com"},
		{Title: "acme robotics", URL: "https://two.example.com"},
		{Title: "Globex", URL: "https://three.example.com"},
	}
	got := dedupeResults(in)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].URL != "https://one.example.com" {
		t.Errorf("first occurrence should win, got %q", got[0].URL)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.acme.example.com/", "acme.example.com"},
		{"http://acme.example.com", "acme.example.com"},
		{"https://acme.example.com/about/?ref=search#team", "acme.example.com/about"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Robotics!", "acme robotics"},
		{"  Acme   Robotics  ", "acme robotics"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- registry ---

func TestSourcesRespectsConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       types.DiscoveryConfig
		wantNames []string
	}{
		{
			"nothing configured",
			types.DiscoveryConfig{},
			nil,
		},
		{
			"fallback only",
			types.DiscoveryConfig{EnableHTMLFallback: true},
			[]string{"html"},
		},
		{
			"google requires both key and cx",
			types.DiscoveryConfig{GoogleAPIKey: "k"},
			nil,
		},
		{
			"everything",
			types.DiscoveryConfig{
				GoogleAPIKey:       "k",
				GoogleCX:           "cx",
				ProductHuntToken:   "tok",
				EnableHTMLFallback: true,
			},
			[]string{"google", "producthunt", "html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sources(tt.cfg, nil, nil)
			if len(got) != len(tt.wantNames) {
				t.Fatalf("got %d sources, want %d", len(got), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if got[i].Name() != want {
					t.Errorf("sources[%d] = %q, want %q", i, got[i].Name(), want)
				}
			}
		})
	}
}

func TestNewLimiterDefaultRate(t *testing.T) {
	l := NewLimiter(0)
	if l.Limit() != 1 {
		t.Errorf("default limit = %v, want 1 rps", l.Limit())
	}
	l = NewLimiter(2.5)
	if l.Limit() != 2.5 {
		t.Errorf("limit = %v, want 2.5 rps", l.Limit())
	}
}
