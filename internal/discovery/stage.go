// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/scout-engine/pkg/types"
)

// stageCandidate is the shape the record extractor reads from a discovery
// stage blob.
type stageCandidate struct {
	Name        string `json:"name"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
}

// stagePayload wraps the candidate list under the key downstream
// extraction looks for first.
type stagePayload struct {
	Startups []stageCandidate `json:"startups"`
}

// StageText renders results as the JSON blob consumed by the ingestion
// pipeline's discovery stage. Results whose cleaned title is empty are
// dropped.
func StageText(results []types.DiscoveryResult) (string, error) {
	candidates := make([]stageCandidate, 0, len(results))
	for _, r := range results {
		name := CleanTitle(r.Title)
		if name == "" {
			continue
		}
		candidates = append(candidates, stageCandidate{
			Name:        name,
			Website:     r.URL,
			Description: r.Snippet,
			Source:      r.Source,
			SourceURL:   r.URL,
		})
	}

	data, err := json.MarshalIndent(stagePayload{Startups: candidates}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding stage text: %w", err)
	}
	return string(data), nil
}

// titleSeparators are the decorations search headlines append after the
// entity name, tried in order.
var titleSeparators = []string{" | ", " - ", " – ", " — ", ": "}

// CleanTitle cuts search-result decoration off a headline, keeping the
// leading segment that usually holds the entity name.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}
