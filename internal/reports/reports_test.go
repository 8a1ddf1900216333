// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/pkg/types"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	return NewWriter(types.ReportsConfig{OutputDir: t.TempDir()})
}

func TestWriteRunCreatesArtifacts(t *testing.T) {
	w := testWriter(t)

	stages := map[string]string{
		"discovery": `{"startups": [{"name": "Acme Robotics"}]}`,
		"scoring":   "free-form notes, not JSON",
	}
	entities := []types.Entity{
		{Name: "Acme Robotics", Website: "https://acme.example.com", FitScore: 85, PrimaryTier: types.TierOne, SecondaryTiers: []string{types.TierTwo}},
		{Name: "Beta Freight", FitScore: 60, PrimaryTier: types.TierTwo},
	}
	sum := types.RunSummary{
		RunID:      "run_20260821120000",
		RunDate:    time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC),
		TotalFound: 2,
		Tier1Count: 1,
		Tier2Count: 1,
		Status:     types.RunCompleted,
	}
	evs := []events.Event{
		events.New(sum.RunID, events.TypeRunStarted, events.SeverityInfo, "run started", nil),
		events.New(sum.RunID, events.TypeEntityInserted, events.SeverityInfo, "stored Acme Robotics", nil),
	}

	dir, err := w.WriteRun(sum.RunID, stages, entities, sum, evs)
	if err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if dir != w.RunDir(sum.RunID) {
		t.Errorf("dir = %q, want %q", dir, w.RunDir(sum.RunID))
	}

	// Stage dumps keep the raw text, JSON-shaped content under .json.
	raw, err := os.ReadFile(filepath.Join(dir, "discovery_output.json"))
	if err != nil {
		t.Fatalf("reading discovery dump: %v", err)
	}
	if string(raw) != stages["discovery"] {
		t.Errorf("discovery dump = %q", raw)
	}
	if _, err := os.Stat(filepath.Join(dir, "scoring_output.txt")); err != nil {
		t.Errorf("scoring dump missing: %v", err)
	}

	var gotEntities []types.Entity
	data, err := os.ReadFile(filepath.Join(dir, "entities.json"))
	if err != nil {
		t.Fatalf("reading entities.json: %v", err)
	}
	if err := json.Unmarshal(data, &gotEntities); err != nil {
		t.Fatalf("parsing entities.json: %v", err)
	}
	if len(gotEntities) != 2 || gotEntities[0].Name != "Acme Robotics" {
		t.Errorf("entities.json = %+v", gotEntities)
	}

	var report finalReport
	data, err = os.ReadFile(filepath.Join(dir, "final_report.json"))
	if err != nil {
		t.Fatalf("reading final_report.json: %v", err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("parsing final_report.json: %v", err)
	}
	if report.RunID != sum.RunID {
		t.Errorf("report run ID = %q", report.RunID)
	}
	if report.TierBreakdown[types.TierOne] != 1 || report.TierBreakdown[types.TierTwo] != 1 {
		t.Errorf("tier breakdown = %v", report.TierBreakdown)
	}
	if len(report.TopEntities) != 2 || report.TopEntities[0].Name != "Acme Robotics" {
		t.Errorf("top entities = %+v", report.TopEntities)
	}

	var gotSum types.RunSummary
	data, err = os.ReadFile(filepath.Join(dir, "summary.yaml"))
	if err != nil {
		t.Fatalf("reading summary.yaml: %v", err)
	}
	if err := yaml.Unmarshal(data, &gotSum); err != nil {
		t.Fatalf("parsing summary.yaml: %v", err)
	}
	if gotSum.RunID != sum.RunID || gotSum.Tier1Count != 1 || gotSum.Status != types.RunCompleted {
		t.Errorf("summary.yaml round trip = %+v", gotSum)
	}

	var tracking runTracking
	data, err = os.ReadFile(filepath.Join(dir, "run_tracking.json"))
	if err != nil {
		t.Fatalf("reading run_tracking.json: %v", err)
	}
	if err := json.Unmarshal(data, &tracking); err != nil {
		t.Fatalf("parsing run_tracking.json: %v", err)
	}
	if tracking.RunID != sum.RunID || len(tracking.Events) != 2 {
		t.Fatalf("tracking = %+v", tracking)
	}
	if tracking.Events[0].Type != events.TypeRunStarted {
		t.Errorf("first tracked event = %q", tracking.Events[0].Type)
	}
}

func TestWriteRunCSV(t *testing.T) {
	w := testWriter(t)
	entities := []types.Entity{
		{Name: "Acme Robotics", Website: "https://acme.example.com", FitScore: 85, PrimaryTier: types.TierOne, SecondaryTiers: []string{types.TierTwo, types.TierThree}},
	}

	dir, err := w.WriteRun("run_csv", nil, entities, types.RunSummary{RunID: "run_csv"}, nil)
	if err != nil {
		t.Fatalf("WriteRun: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "entities.csv"))
	if err != nil {
		t.Fatalf("opening entities.csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing entities.csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header plus one record", len(rows))
	}
	if rows[0][0] != "name" || rows[0][7] != "fit_score" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Acme Robotics" || rows[1][7] != "85" {
		t.Errorf("record = %v", rows[1])
	}
	if rows[1][9] != "Tier 2;Tier 3" {
		t.Errorf("secondary tiers column = %q", rows[1][9])
	}
}

func TestWriteRunEmpty(t *testing.T) {
	w := testWriter(t)

	dir, err := w.WriteRun("run_empty", nil, nil, types.RunSummary{RunID: "run_empty"}, nil)
	if err != nil {
		t.Fatalf("WriteRun: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "entities.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("entities.json = %q, want empty array", data)
	}

	var tracking runTracking
	data, err = os.ReadFile(filepath.Join(dir, "run_tracking.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &tracking); err != nil {
		t.Fatal(err)
	}
	if tracking.Events == nil || len(tracking.Events) != 0 {
		t.Errorf("tracking events = %v, want empty slice", tracking.Events)
	}
}

func TestFinalReportCapsTopEntities(t *testing.T) {
	w := testWriter(t)

	var entities []types.Entity
	for i := 0; i < 15; i++ {
		entities = append(entities, types.Entity{
			Name:     fmt.Sprintf("Company %02d", i),
			FitScore: i * 5,
		})
	}

	dir, err := w.WriteRun("run_top", nil, entities, types.RunSummary{RunID: "run_top"}, nil)
	if err != nil {
		t.Fatalf("WriteRun: %v", err)
	}

	var report finalReport
	data, err := os.ReadFile(filepath.Join(dir, "final_report.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.TopEntities) != topEntityLimit {
		t.Fatalf("got %d top entities, want %d", len(report.TopEntities), topEntityLimit)
	}
	if report.TopEntities[0].Name != "Company 14" {
		t.Errorf("highest scorer = %q", report.TopEntities[0].Name)
	}
	if report.TopEntities[0].FitScore != 70 {
		t.Errorf("highest score = %d", report.TopEntities[0].FitScore)
	}
}

func TestNewWriterDefaultDir(t *testing.T) {
	w := NewWriter(types.ReportsConfig{})
	if w.RunDir("run_x") != filepath.Join("output", "runs", "run_x") {
		t.Errorf("default run dir = %q", w.RunDir("run_x"))
	}
}
