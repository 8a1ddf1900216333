// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reports writes the per-run artifact directory: raw stage dumps,
// the admitted entities in JSON and CSV form, a final report, a YAML
// summary, and the run's event log.
package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/pkg/types"
)

const topEntityLimit = 10

// Writer produces run artifact directories under a base output directory.
type Writer struct {
	outputDir string
}

// NewWriter returns a Writer rooted at cfg.OutputDir.
func NewWriter(cfg types.ReportsConfig) *Writer {
	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Join("output", "runs")
	}
	return &Writer{outputDir: dir}
}

// RunDir returns the directory WriteRun uses for runID. The pipeline
// records it as the run's report path before the artifacts exist.
func (w *Writer) RunDir(runID string) string {
	return filepath.Join(w.outputDir, runID)
}

// WriteRun writes the full artifact set for one run and returns the run
// directory path. Stage texts are keyed by stage name; entities are the
// run's admitted records.
func (w *Writer) WriteRun(runID string, stages map[string]string, entities []types.Entity, sum types.RunSummary, evs []events.Event) (string, error) {
	dir := w.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	if err := w.writeStageDumps(dir, stages); err != nil {
		return "", err
	}
	if err := w.writeEntitiesJSON(dir, entities); err != nil {
		return "", err
	}
	if err := w.writeEntitiesCSV(dir, entities); err != nil {
		return "", err
	}
	if err := w.writeFinalReport(dir, entities, sum); err != nil {
		return "", err
	}
	if err := w.writeSummaryYAML(dir, sum); err != nil {
		return "", err
	}
	if err := w.writeTracking(dir, runID, evs); err != nil {
		return "", err
	}
	return dir, nil
}

// writeStageDumps saves each raw stage text verbatim, as .json when the
// text parses as JSON and .txt otherwise.
func (w *Writer) writeStageDumps(dir string, stages map[string]string) error {
	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := stages[name]
		ext := ".txt"
		if json.Valid([]byte(content)) {
			ext = ".json"
		}
		path := filepath.Join(dir, name+"_output"+ext)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s dump: %w", name, err)
		}
	}
	return nil
}

func (w *Writer) writeEntitiesJSON(dir string, entities []types.Entity) error {
	if entities == nil {
		entities = []types.Entity{}
	}
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling entities: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "entities.json"), data, 0o644)
}

var csvHeader = []string{
	"name", "website", "description", "category", "founded_date",
	"country", "source", "fit_score", "primary_tier", "secondary_tiers",
}

func (w *Writer) writeEntitiesCSV(dir string, entities []types.Entity) error {
	f, err := os.Create(filepath.Join(dir, "entities.csv"))
	if err != nil {
		return fmt.Errorf("creating entities.csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, e := range entities {
		row := []string{
			e.Name, e.Website, e.Description, e.Category, e.FoundedDate,
			e.Country, e.Source, strconv.Itoa(e.FitScore), e.PrimaryTier,
			strings.Join(e.SecondaryTiers, ";"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", e.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing entities.csv: %w", err)
	}
	return f.Close()
}

// finalReport is the top-level structure of final_report.json.
type finalReport struct {
	RunID         string           `json:"run_id"`
	GeneratedAt   time.Time        `json:"generated_at"`
	Summary       types.RunSummary `json:"summary"`
	TierBreakdown map[string]int   `json:"tier_breakdown"`
	TopEntities   []topEntity      `json:"top_entities"`
}

// topEntity is the trimmed view of a record highlighted in the final report.
type topEntity struct {
	Name        string `json:"name"`
	Website     string `json:"website,omitempty"`
	FitScore    int    `json:"fit_score"`
	PrimaryTier string `json:"primary_tier,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (w *Writer) writeFinalReport(dir string, entities []types.Entity, sum types.RunSummary) error {
	breakdown := make(map[string]int)
	for _, e := range entities {
		if e.PrimaryTier != "" {
			breakdown[e.PrimaryTier]++
		}
	}

	ranked := make([]types.Entity, len(entities))
	copy(ranked, entities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FitScore > ranked[j].FitScore
	})
	if len(ranked) > topEntityLimit {
		ranked = ranked[:topEntityLimit]
	}

	top := make([]topEntity, len(ranked))
	for i, e := range ranked {
		top[i] = topEntity{
			Name:        e.Name,
			Website:     e.Website,
			FitScore:    e.FitScore,
			PrimaryTier: e.PrimaryTier,
			Category:    e.Category,
		}
	}

	report := finalReport{
		RunID:         sum.RunID,
		GeneratedAt:   time.Now().UTC(),
		Summary:       sum,
		TierBreakdown: breakdown,
		TopEntities:   top,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling final report: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "final_report.json"), data, 0o644)
}

func (w *Writer) writeSummaryYAML(dir string, sum types.RunSummary) error {
	data, err := yaml.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "summary.yaml"), data, 0o644)
}

// runTracking is the top-level structure of run_tracking.json.
type runTracking struct {
	RunID  string         `json:"run_id"`
	Events []events.Event `json:"events"`
}

func (w *Writer) writeTracking(dir, runID string, evs []events.Event) error {
	if evs == nil {
		evs = []events.Event{}
	}
	data, err := json.MarshalIndent(runTracking{RunID: runID, Events: evs}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run tracking: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "run_tracking.json"), data, 0o644)
}
