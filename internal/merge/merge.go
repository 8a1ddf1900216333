// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge attaches tier and fit-score annotations onto base entity
// records. The categorization and scoring stages report their results as
// separate text blobs keyed loosely by entity name; merge indexes each blob
// with the same tolerant extraction the discovery stage gets, then joins on
// exact name equality. A near-miss spelling between stages simply fails to
// merge and the record keeps its embedded values or defaults. Fuzzy
// matching belongs to the deduplicator, never to merging.
package merge

import (
	"strings"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/extract"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// TierAnnotation carries the categorization stage's labels for one entity.
type TierAnnotation struct {
	PrimaryTier    string
	SecondaryTiers []string
}

// FitAnnotation carries the scoring stage's result for one entity.
type FitAnnotation struct {
	Score    int
	Analysis string
}

// TierMap indexes the categorization stage's text by entity name. An entity
// the stage named but did not label lands in the default tier: being
// mentioned by the categorization stage at all is a categorization.
func TierMap(text, runID string, sink events.Sink) map[string]TierAnnotation {
	tiers := make(map[string]TierAnnotation)
	for name, m := range annotationMappings(text, runID, "categorization", sink) {
		tiers[name] = TierAnnotation{
			PrimaryTier:    tierOrDefault(m),
			SecondaryTiers: extract.Strings(m, "secondary_tiers", "secondary_tier"),
		}
	}
	return tiers
}

// FitMap indexes the scoring stage's text by entity name.
func FitMap(text, runID string, sink events.Sink) map[string]FitAnnotation {
	fits := make(map[string]FitAnnotation)
	for name, m := range annotationMappings(text, runID, "scoring", sink) {
		fits[name] = FitAnnotation{
			Score:    extract.Score(m, "fit_score", "score"),
			Analysis: extract.String(m, "fit_analysis", "analysis"),
		}
	}
	return fits
}

// Annotate merges the annotation maps onto records. Per record and per
// annotation source the precedence is: map entry, then the record's own
// embedded field, then the zero default. No record is ever dropped here; a
// lookup miss is not an error.
func Annotate(records []types.Entity, tiers map[string]TierAnnotation, fits map[string]FitAnnotation) []types.Entity {
	merged := make([]types.Entity, len(records))
	for i, record := range records {
		if t, ok := tiers[record.Name]; ok {
			record.PrimaryTier = t.PrimaryTier
			record.SecondaryTiers = t.SecondaryTiers
		}
		if f, ok := fits[record.Name]; ok {
			record.FitScore = f.Score
			record.FitAnalysis = f.Analysis
		}
		merged[i] = record
	}
	return merged
}

// annotationMappings extracts a stage's mappings and indexes them by name.
// Unnamed mappings are unusable as annotations and are skipped silently;
// unparseable non-empty text emits one parse_failure event, mirroring the
// record extractor.
func annotationMappings(text, runID, stage string, sink events.Sink) map[string]map[string]any {
	sink = events.OrDiscard(sink)
	indexed := make(map[string]map[string]any)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return indexed
	}

	mappings := extract.Mappings(trimmed)
	if mappings == nil {
		sink.Emit(events.New(runID, events.TypeParseFailure, events.SeverityWarning,
			"stage text yielded no records",
			map[string]any{"stage": stage, "text_len": len(trimmed)}))
		return indexed
	}

	for _, m := range mappings {
		name := strings.TrimSpace(extract.Name(m))
		if name == "" {
			continue
		}
		indexed[name] = m
	}
	return indexed
}

func tierOrDefault(m map[string]any) string {
	if tier := extract.String(m, "primary_tier", "tier"); tier != "" {
		return tier
	}
	return types.TierThree
}
