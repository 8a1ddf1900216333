// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DiscoveryResult is one candidate returned by a discovery source, before
// any extraction or merging has happened.
type DiscoveryResult struct {
	// Title is the result headline, usually the entity name plus noise.
	Title string `json:"title" yaml:"title"`

	// URL is the landing page the source associates with the result.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short descriptive text the source returned.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Source identifies which adapter produced the result
	// (e.g. "google", "producthunt", "html").
	Source string `json:"source" yaml:"source"`
}
