// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe decides whether a candidate entity is a near-duplicate of
// one already accepted. Two independent nets catch duplicates: fuzzy name
// similarity against the accepted reference set before insert, and the
// content hash the store enforces as an exact uniqueness key across runs.
// The first net catches near-miss spellings; the second catches exact
// repeats even after the in-memory reference set is gone.
package dedupe

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/scout-engine/internal/events"
)

// DefaultThreshold is the similarity ratio at or above which two names are
// treated as the same entity.
const DefaultThreshold = 0.85

// Similarity returns a normalized edit-distance ratio between two names,
// case folded and trimmed, in [0,1]. The ratio is symmetric and reaches
// 1.0 only when the folded strings are identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// ContentHash derives the exact-duplicate key for an entity from its name,
// website, and founded date, case folded. The digest is deterministic
// across processes and runs.
func ContentHash(name, website, foundedDate string) string {
	content := strings.ToLower(name) + strings.ToLower(website) + strings.ToLower(foundedDate)
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

// Deduplicator tracks the names accepted so far and answers admit/reject
// for each candidate. The reference set is an ordered slice: store contents
// in load order, then admissions in the order they happened, so the
// first-hit decision is deterministic for a given run.
type Deduplicator struct {
	threshold float64
	names     []string
	sink      events.Sink
}

// New builds a Deduplicator seeded with the already-persisted names.
// A non-positive threshold selects DefaultThreshold.
func New(threshold float64, existing []string, sink events.Sink) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	names := make([]string, len(existing))
	copy(names, existing)
	return &Deduplicator{
		threshold: threshold,
		names:     names,
		sink:      events.OrDiscard(sink),
	}
}

// IsDuplicate reports whether name is a near-duplicate of any reference
// name. The reference set is left unchanged.
func (d *Deduplicator) IsDuplicate(name string) bool {
	_, dup := d.match(name)
	return dup
}

// Admit decides whether the candidate becomes a new entity. A rejected
// candidate is dropped silently apart from a debug event and does not join
// the reference set; an admitted name does, and shadows later candidates.
func (d *Deduplicator) Admit(runID, name string) bool {
	if matched, dup := d.match(name); dup {
		d.sink.Emit(events.New(runID, events.TypeDuplicateRejected, events.SeverityDebug,
			"near-duplicate rejected",
			map[string]any{"candidate": name, "matched": matched}))
		return false
	}
	d.names = append(d.names, name)
	return true
}

// Known returns the current reference-set size.
func (d *Deduplicator) Known() int {
	return len(d.names)
}

// match scans the reference set in order and returns the first name whose
// similarity clears the threshold. No best-match search: admission is
// boolean, so the first hit settles it.
func (d *Deduplicator) match(name string) (string, bool) {
	for _, existing := range d.names {
		if Similarity(name, existing) >= d.threshold {
			return existing, true
		}
	}
	return "", false
}
