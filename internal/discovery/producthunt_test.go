// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProductHuntDiscoverRequest(t *testing.T) {
	var capturedAuth, capturedContentType string
	var capturedBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		capturedContentType = r.Header.Get("Content-Type")
		capturedBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"data":{"posts":{"edges":[]}}}`)
	}))
	defer ts.Close()

	old := productHuntAPIBase
	productHuntAPIBase = ts.URL
	defer func() { productHuntAPIBase = old }()

	cfg := testCfg()
	cfg.MaxResults = 5

	s := &ProductHuntSource{Client: ts.Client(), Token: "test-token"}
	if _, err := s.Discover(context.Background(), "ignored", cfg); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if capturedAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", capturedAuth)
	}
	if capturedContentType != "application/json" {
		t.Errorf("Content-Type = %q", capturedContentType)
	}

	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.Unmarshal(capturedBody, &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if !strings.Contains(body.Query, "posts(first: $first") {
		t.Errorf("graphql query = %q, want posts selection", body.Query)
	}
	if got := body.Variables["first"]; got != float64(5) {
		t.Errorf("first variable = %v, want 5", got)
	}
}

func TestProductHuntDiscoverParsesPosts(t *testing.T) {
	resp := `{"data":{"posts":{"edges":[
		{"node":{"name":"Acme Copilot","tagline":"AI for warehouses","website":"https://acme.example.com","url":"https://posts.example.com/acme"}},
		{"node":{"name":"NoSite","tagline":"tagline only","website":"","url":"https://posts.example.com/nosite"}},
		{"node":{"name":"","tagline":"dropped","website":"https://x.example.com","url":""}}
	]}}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := productHuntAPIBase
	productHuntAPIBase = ts.URL
	defer func() { productHuntAPIBase = old }()

	s := &ProductHuntSource{Client: ts.Client(), Token: "tok"}
	results, err := s.Discover(context.Background(), "", testCfg())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (unnamed dropped)", len(results))
	}

	if results[0].Title != "Acme Copilot" {
		t.Errorf("Title = %q", results[0].Title)
	}
	if results[0].URL != "https://acme.example.com" {
		t.Errorf("URL = %q, want the product website", results[0].URL)
	}
	if results[0].Snippet != "AI for warehouses" {
		t.Errorf("Snippet = %q", results[0].Snippet)
	}
	if results[0].Source != "producthunt" {
		t.Errorf("Source = %q", results[0].Source)
	}

	// Without a website the post page stands in.
	if results[1].URL != "https://posts.example.com/nosite" {
		t.Errorf("fallback URL = %q", results[1].URL)
	}
}

func TestProductHuntDiscoverHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := productHuntAPIBase
	productHuntAPIBase = ts.URL
	defer func() { productHuntAPIBase = old }()

	s := &ProductHuntSource{Client: ts.Client(), Token: "expired"}
	_, err := s.Discover(context.Background(), "", testCfg())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 401") {
		t.Errorf("error = %q, want HTTP 401", err.Error())
	}
}

func TestProductHuntSourceName(t *testing.T) {
	s := &ProductHuntSource{}
	if got := s.Name(); got != "producthunt" {
		t.Errorf("Name() = %q, want producthunt", got)
	}
}
