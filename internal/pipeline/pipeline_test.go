// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/reports"
	"github.com/pdiddy/scout-engine/internal/store"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// fixtureStages is a complete, well-formed run: three discovery records,
// scores and tiers under the alternate field spellings the stages use.
func fixtureStages() StageOutputs {
	return StageOutputs{
		Discovery: `{"startups": [
			{"name": "Acme Robotics", "website": "https://acme.example.com", "founded_date": "2024", "category": "robotics"},
			{"name": "Beta Freight", "website": "https://beta.example.com"},
			{"name": "Gamma Health"}
		]}`,
		Scoring: `[
			{"startup_name": "Acme Robotics", "fit_score": 85, "fit_analysis": "strong fit"},
			{"name": "Beta Freight", "score": 70},
			{"name": "Gamma Health", "fit_score": 55}
		]`,
		Categorization: `[
			{"name": "Acme Robotics", "tier": "Tier 1"},
			{"name": "Beta Freight", "primary_tier": "Tier 1"},
			{"name": "Gamma Health", "primary_tier": "Tier 2", "secondary_tiers": ["Tier 3"]}
		]`,
		Reporting: "Final report: 3 companies assessed.",
	}
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(types.StorageConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunEndToEnd(t *testing.T) {
	st := testStore(t)
	sink := events.NewMemorySink()
	writer := reports.NewWriter(types.ReportsConfig{OutputDir: t.TempDir()})

	res, err := Run(context.Background(), "run_20260821100000", fixtureStages(), Options{
		Store:   st,
		Reports: writer,
		Sink:    sink,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := Counts{Found: 3, Admitted: 3, Inserted: 3}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}

	sum := res.Summary
	if sum.TotalFound != 3 || sum.Tier1Count != 2 || sum.Tier2Count != 1 || sum.Tier3Count != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Status != types.RunCompleted {
		t.Errorf("status = %q", sum.Status)
	}
	if sum.ReportPath != res.ReportDir {
		t.Errorf("report path = %q, dir = %q", sum.ReportPath, res.ReportDir)
	}

	latest, err := st.LatestRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.RunID != "run_20260821100000" {
		t.Fatalf("latest run = %+v", latest)
	}

	// Annotations from both stages landed on the stored records.
	all, err := st.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	byName := make(map[string]types.Entity, len(all))
	for _, e := range all {
		byName[e.Name] = e
	}
	acme := byName["Acme Robotics"]
	if acme.FitScore != 85 || acme.FitAnalysis != "strong fit" || acme.PrimaryTier != types.TierOne {
		t.Errorf("acme = %+v", acme)
	}
	if acme.ContentHash == "" {
		t.Error("acme has no content hash")
	}
	gamma := byName["Gamma Health"]
	if gamma.PrimaryTier != types.TierTwo || len(gamma.SecondaryTiers) != 1 || gamma.SecondaryTiers[0] != types.TierThree {
		t.Errorf("gamma = %+v", gamma)
	}

	// Report artifacts exist, including the plain-text reporting dump.
	for _, name := range []string{
		"discovery_output.json", "reporting_output.txt",
		"entities.json", "entities.csv", "final_report.json",
		"summary.yaml", "run_tracking.json",
	} {
		if _, err := os.Stat(filepath.Join(res.ReportDir, name)); err != nil {
			t.Errorf("artifact %s: %v", name, err)
		}
	}

	if got := sink.ByType(events.TypeRunCompleted); len(got) != 1 {
		t.Errorf("run_completed events = %d", len(got))
	}
	if got := sink.ByType(events.TypeEntityInserted); len(got) != 3 {
		t.Errorf("entity_inserted events = %d", len(got))
	}
}

func TestRunRejectsNearDuplicateWithinRun(t *testing.T) {
	st := testStore(t)
	stages := StageOutputs{
		Discovery: `[{"name": "TechStartup"}, {"name": "Tech Startup"}]`,
	}

	res, err := Run(context.Background(), "run_1", stages, Options{Store: st})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Counts.Inserted != 1 || res.Counts.Duplicates != 1 {
		t.Errorf("counts = %+v", res.Counts)
	}
	if res.Summary.TotalFound != 1 {
		t.Errorf("total found = %d", res.Summary.TotalFound)
	}
}

func TestRunRejectsNearDuplicateAcrossRuns(t *testing.T) {
	st := testStore(t)

	first := StageOutputs{Discovery: `[{"name": "TechStartup"}]`}
	if _, err := Run(context.Background(), "run_1", first, Options{Store: st}); err != nil {
		t.Fatal(err)
	}

	second := StageOutputs{Discovery: `[{"name": "Tech Startup"}]`}
	res, err := Run(context.Background(), "run_2", second, Options{Store: st})
	if err != nil {
		t.Fatal(err)
	}
	if res.Counts.Inserted != 0 || res.Counts.Duplicates != 1 {
		t.Errorf("counts = %+v", res.Counts)
	}

	n, err := st.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("store count = %d", n)
	}
}

func TestRunKeyCollisionBackstop(t *testing.T) {
	st := testStore(t)
	sink := events.NewMemorySink()

	// An impossible threshold disables fuzzy matching, so the exact repeat
	// reaches the store and its uniqueness keys reject it.
	stages := StageOutputs{
		Discovery: `[{"name": "Acme Robotics"}, {"name": "Acme Robotics"}]`,
	}
	res, err := Run(context.Background(), "run_1", stages, Options{
		Store:  st,
		Dedupe: types.DedupeConfig{Threshold: 2},
		Sink:   sink,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Counts.Admitted != 2 || res.Counts.Inserted != 1 || res.Counts.Duplicates != 1 {
		t.Errorf("counts = %+v", res.Counts)
	}
	if got := sink.ByType(events.TypeDuplicateKey); len(got) != 1 {
		t.Errorf("duplicate_key events = %d", len(got))
	}
}

func TestRunCapsAdmissions(t *testing.T) {
	st := testStore(t)
	stages := StageOutputs{
		Discovery: `[{"name": "One Co"}, {"name": "Two Co"}, {"name": "Three Co"}, {"name": "Four Co"}]`,
	}

	res, err := Run(context.Background(), "run_1", stages, Options{
		Store:  st,
		Ingest: types.IngestConfig{MaxPerRun: 2},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Counts.Admitted != 2 || res.Counts.Inserted != 2 || res.Counts.Skipped != 2 {
		t.Errorf("counts = %+v", res.Counts)
	}
}

func TestRunToleratesUnparseableStages(t *testing.T) {
	st := testStore(t)
	sink := events.NewMemorySink()
	stages := StageOutputs{
		Discovery:      "the model produced prose with no structure at all",
		Scoring:        "likewise nothing here",
		Categorization: "",
	}

	res, err := Run(context.Background(), "run_1", stages, Options{Store: st, Sink: sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Counts.Found != 0 || res.Counts.Inserted != 0 {
		t.Errorf("counts = %+v", res.Counts)
	}

	// The run still completes and records an empty summary.
	latest, err := st.LatestRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.TotalFound != 0 {
		t.Fatalf("latest = %+v", latest)
	}

	if got := sink.ByType(events.TypeParseFailure); len(got) != 2 {
		t.Errorf("parse_failure events = %d", len(got))
	}
}

func TestRunStorageFailureAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scout.db")
	st, err := store.NewStore(types.StorageConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	sink := events.NewMemorySink()
	_, err = Run(context.Background(), "run_1", fixtureStages(), Options{Store: st, Sink: sink})
	if err == nil {
		t.Fatal("expected error from closed store")
	}
	if got := sink.ByType(events.TypeRunFailed); len(got) != 1 {
		t.Errorf("run_failed events = %d", len(got))
	}

	// No summary row exists for the aborted run.
	reopened, err := store.NewStore(types.StorageConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	latest, err := reopened.LatestRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Errorf("aborted run left a summary: %+v", latest)
	}
}

type fakeNotifier struct {
	got  *types.RunSummary
	fail bool
}

func (f *fakeNotifier) NotifyRunComplete(_ context.Context, sum types.RunSummary) error {
	f.got = &sum
	if f.fail {
		return errors.New("smtp down")
	}
	return nil
}

func TestRunNotifies(t *testing.T) {
	st := testStore(t)
	n := &fakeNotifier{}

	res, err := Run(context.Background(), "run_1", fixtureStages(), Options{Store: st, Notifier: n})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n.got == nil || n.got.TotalFound != res.Summary.TotalFound {
		t.Errorf("notifier got %+v", n.got)
	}
}

func TestRunNotifyFailureIsNonFatal(t *testing.T) {
	st := testStore(t)
	sink := events.NewMemorySink()
	n := &fakeNotifier{fail: true}

	res, err := Run(context.Background(), "run_1", fixtureStages(), Options{Store: st, Notifier: n, Sink: sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res == nil || res.Summary.Status != types.RunCompleted {
		t.Fatalf("result = %+v", res)
	}
	if got := sink.ByType(events.TypeNotifyFailed); len(got) != 1 {
		t.Errorf("notify_failed events = %d", len(got))
	}
}

func TestRunRequiresStore(t *testing.T) {
	if _, err := Run(context.Background(), "run_1", StageOutputs{}, Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunTrackingArtifactHoldsRunEvents(t *testing.T) {
	st := testStore(t)
	writer := reports.NewWriter(types.ReportsConfig{OutputDir: t.TempDir()})

	res, err := Run(context.Background(), "run_1", fixtureStages(), Options{Store: st, Reports: writer})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(res.ReportDir, "run_tracking.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"run_started", "entity_inserted", "run_aggregated"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("tracking artifact missing %q", want)
		}
	}
}
