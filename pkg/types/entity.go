// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scout-engine pipeline.
package types

import "time"

// Tier labels assigned by the categorization stage. Records carrying any
// other label still count toward run totals but land in no tier bucket.
const (
	TierOne   = "Tier 1"
	TierTwo   = "Tier 2"
	TierThree = "Tier 3"
)

// Entity is one discovered subject (an organization) carrying the attributes
// contributed by the discovery, scoring, and categorization stages.
type Entity struct {
	// Name is the natural key used for annotation merge and duplicate
	// detection. It must be non-empty for the record to be persistable.
	Name string `json:"name" yaml:"name"`

	// Website is the entity's primary URL, when the discovery stage found one.
	Website string `json:"website,omitempty" yaml:"website,omitempty"`

	// Description is the short free-text summary from the discovery stage.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Category is the market/segment label reported upstream.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// FoundedDate is kept as the free-form string reported upstream; it also
	// feeds the content hash.
	FoundedDate string `json:"founded_date,omitempty" yaml:"founded_date,omitempty"`

	// Country is the entity's home country, when known.
	Country string `json:"country,omitempty" yaml:"country,omitempty"`

	// Source identifies which discovery adapter or stage reported the entity.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// SourceURL points at the page the entity was discovered on.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// FitScore is the 0-100 suitability score from the scoring stage.
	FitScore int `json:"fit_score" yaml:"fit_score"`

	// FitAnalysis is the scoring stage's free-text rationale.
	FitAnalysis string `json:"fit_analysis,omitempty" yaml:"fit_analysis,omitempty"`

	// PrimaryTier is one of the Tier constants, or empty when the
	// categorization stage did not cover the entity.
	PrimaryTier string `json:"primary_tier,omitempty" yaml:"primary_tier,omitempty"`

	// SecondaryTiers lists additional tier labels in stage output order.
	// The order is preserved through storage.
	SecondaryTiers []string `json:"secondary_tiers,omitempty" yaml:"secondary_tiers,omitempty"`

	// ContentHash is the exact-duplicate key derived from name, website,
	// and founded date. Unique across all persisted records.
	ContentHash string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`

	// CreatedAt and UpdatedAt are stamped by the store on insert. Records
	// are never updated after insert; a colliding re-insert is rejected.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
