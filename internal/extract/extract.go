// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns one stage's raw text output into typed entity
// records. Upstream stages emit loosely-structured text: sometimes a clean
// JSON array, sometimes an object wrapping a list under a known key,
// sometimes a single object, sometimes prose with a JSON fragment buried in
// it. Extraction tries a fixed sequence of shape matchers and takes the
// first that fits. It never fails: text that yields no records produces an
// empty slice and a parse_failure event, not an error.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// listKeys are the wrapper keys searched, in priority order, when a stage
// wraps its record list in a JSON object.
var listKeys = []string{"startups", "top_opportunities", "opportunities"}

// nameKeys are the accepted spellings of the entity name field.
var nameKeys = []string{"name", "startup_name"}

// fragmentPattern finds the first embedded JSON-looking fragment in prose:
// a bracketed array or object, whichever starts earliest. Greedy so that a
// full top-level value is captured even when it contains nested brackets.
var fragmentPattern = regexp.MustCompile(`(?s)\[.*\]|\{.*\}`)

// A shapeMatcher attempts to read entity mappings out of raw text. The
// second return reports whether the shape applied; a matcher that does not
// apply leaves the decision to the next matcher in order.
type shapeMatcher func(text string) ([]map[string]any, bool)

// matchers in priority order. First success wins.
var matchers = []shapeMatcher{
	matchDirect,
	matchEmbedded,
}

// Mappings extracts raw entity mappings from text. The result is empty when
// no matcher applies; extraction is deterministic, so the same text always
// yields the same mappings.
func Mappings(text string) []map[string]any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	for _, match := range matchers {
		if records, ok := match(trimmed); ok {
			return records
		}
	}
	return nil
}

// Records extracts mappings from text and decodes them into typed entities.
// Mappings without a usable name are dropped here, at the boundary, with a
// validation_failure event; nothing downstream sees an unnamed record.
// stage names the pipeline stage the text came from, for event context.
func Records(text, runID, stage string, sink events.Sink) []types.Entity {
	sink = events.OrDiscard(sink)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	mappings := Mappings(trimmed)
	if mappings == nil {
		sink.Emit(events.New(runID, events.TypeParseFailure, events.SeverityWarning,
			"stage text yielded no records",
			map[string]any{"stage": stage, "text_len": len(trimmed)}))
		return nil
	}
	sink.Emit(events.New(runID, events.TypeStageExtracted, events.SeverityDebug,
		"stage text parsed",
		map[string]any{"stage": stage, "mappings": len(mappings)}))

	records := make([]types.Entity, 0, len(mappings))
	for _, m := range mappings {
		entity, ok := decode(m)
		if !ok {
			sink.Emit(events.New(runID, events.TypeValidationFailure, events.SeverityWarning,
				"record dropped: missing name",
				map[string]any{"stage": stage}))
			continue
		}
		records = append(records, entity)
	}
	return records
}

// matchDirect parses text that is itself JSON: it must start with '[' or
// '{' to qualify.
func matchDirect(text string) ([]map[string]any, bool) {
	if !strings.HasPrefix(text, "[") && !strings.HasPrefix(text, "{") {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false
	}
	return unwrap(parsed)
}

// matchEmbedded scans prose for the first embedded JSON fragment and parses
// it. One attempt only: a fragment that looks like JSON but does not parse
// is a failure, not a reason to keep scanning.
func matchEmbedded(text string) ([]map[string]any, bool) {
	fragment := fragmentPattern.FindString(text)
	if fragment == "" {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return nil, false
	}
	return unwrap(parsed)
}

// unwrap normalizes a parsed JSON value to a list of mappings: an array is
// taken as-is, an object is unwrapped through the first list key present,
// and an object that itself names an entity becomes a one-element list.
// Non-mapping list elements are filtered out.
func unwrap(parsed any) ([]map[string]any, bool) {
	switch v := parsed.(type) {
	case []any:
		return filterMappings(v), true
	case map[string]any:
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				return filterMappings(list), true
			}
		}
		if Name(v) != "" {
			return []map[string]any{v}, true
		}
	}
	return nil, false
}

func filterMappings(list []any) []map[string]any {
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records
}

// decode builds a typed Entity from one raw mapping. ok is false when the
// mapping has no usable name.
func decode(m map[string]any) (types.Entity, bool) {
	name := strings.TrimSpace(Name(m))
	if name == "" {
		return types.Entity{}, false
	}
	return types.Entity{
		Name:           name,
		Website:        String(m, "website", "url"),
		Description:    String(m, "description"),
		Category:       String(m, "category"),
		FoundedDate:    String(m, "founded_date", "date"),
		Country:        String(m, "country"),
		Source:         String(m, "source"),
		SourceURL:      String(m, "source_url"),
		FitScore:       Score(m, "fit_score", "score"),
		FitAnalysis:    String(m, "fit_analysis", "analysis"),
		PrimaryTier:    String(m, "primary_tier", "tier"),
		SecondaryTiers: Strings(m, "secondary_tiers", "secondary_tier"),
	}, true
}

// Name returns the mapping's entity name under any accepted spelling, or "".
func Name(m map[string]any) string {
	return String(m, nameKeys...)
}

// String returns the first non-empty string value found under keys.
// Non-string values are ignored.
func String(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Score returns the first numeric value found under keys, clamped to the
// 0-100 fit-score range.
func Score(m map[string]any, keys ...string) int {
	return clampScore(Int(m, keys...))
}

// Int returns the first numeric value found under keys, accepting JSON
// numbers and numeric strings. Zero when absent.
func Int(m map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// Strings returns the first list-of-strings value found under keys. A bare
// string value is wrapped as a one-element list; non-string list elements
// are dropped.
func Strings(m map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
