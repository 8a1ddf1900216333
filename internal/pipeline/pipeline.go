// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one ingestion run end to end: extract entity
// records from the discovery stage text, merge the scoring and
// categorization annotations onto them, deduplicate, persist, aggregate,
// and write the run's report artifacts.
//
// A run is synchronous and single-writer. Extraction and merge problems
// cost individual records and the run continues; a storage failure aborts
// the run, and no run summary is recorded for an aborted run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/scout-engine/internal/aggregate"
	"github.com/pdiddy/scout-engine/internal/dedupe"
	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/extract"
	"github.com/pdiddy/scout-engine/internal/merge"
	"github.com/pdiddy/scout-engine/internal/notify"
	"github.com/pdiddy/scout-engine/internal/reports"
	"github.com/pdiddy/scout-engine/internal/store"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// defaultMaxPerRun caps admissions when the config does not.
const defaultMaxPerRun = 100

// StageOutputs carries the four raw stage texts of one run. Any of them
// may be empty; an empty stage simply contributes nothing.
type StageOutputs struct {
	Discovery      string
	Scoring        string
	Categorization string
	Reporting      string
}

// Counts reports what happened to the run's candidate records.
type Counts struct {
	// Found is how many named records the discovery stage text yielded.
	Found int
	// Admitted is how many candidates cleared fuzzy duplicate detection.
	Admitted int
	// Inserted is how many admitted records the store accepted.
	Inserted int
	// Duplicates counts fuzzy rejections plus store key collisions.
	Duplicates int
	// Skipped counts candidates dropped by the per-run admission cap.
	Skipped int
}

// Options carries a run's collaborators. Store is required; the rest may
// be left zero.
type Options struct {
	Store    *store.Store
	Dedupe   types.DedupeConfig
	Ingest   types.IngestConfig
	Reports  *reports.Writer
	Notifier notify.Notifier
	Sink     events.Sink
}

// Result is what a completed run produced.
type Result struct {
	Summary   types.RunSummary
	Counts    Counts
	ReportDir string
}

// Run executes one ingestion run for runID over the given stage texts.
// It returns an error only when storage fails; every other problem is
// absorbed into counts and events.
func Run(ctx context.Context, runID string, stages StageOutputs, opts Options) (*Result, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline requires a store")
	}

	start := time.Now()

	// Every run records its own event history for the tracking artifact,
	// on top of whatever sink the caller provided.
	mem := events.NewMemorySink()
	sink := events.Multi(events.OrDiscard(opts.Sink), mem)

	sink.Emit(events.New(runID, events.TypeRunStarted, events.SeverityInfo,
		"ingestion run started", map[string]any{
			"discovery_len":      len(stages.Discovery),
			"scoring_len":        len(stages.Scoring),
			"categorization_len": len(stages.Categorization),
		}))

	records := extract.Records(stages.Discovery, runID, "discovery", sink)
	tiers := merge.TierMap(stages.Categorization, runID, sink)
	fits := merge.FitMap(stages.Scoring, runID, sink)
	merged := merge.Annotate(records, tiers, fits)

	counts := Counts{Found: len(merged)}

	known, err := opts.Store.Names(ctx)
	if err != nil {
		return nil, abort(runID, sink, fmt.Errorf("loading reference names: %w", err))
	}
	ded := dedupe.New(opts.Dedupe.Threshold, known, sink)

	maxPerRun := opts.Ingest.MaxPerRun
	if maxPerRun <= 0 {
		maxPerRun = defaultMaxPerRun
	}

	var inserted []types.Entity
	for _, rec := range merged {
		if counts.Admitted >= maxPerRun {
			counts.Skipped++
			continue
		}
		if !ded.Admit(runID, rec.Name) {
			counts.Duplicates++
			continue
		}
		counts.Admitted++

		rec.ContentHash = dedupe.ContentHash(rec.Name, rec.Website, rec.FoundedDate)
		ok, err := opts.Store.InsertEntity(ctx, rec)
		if err != nil {
			return nil, abort(runID, sink, fmt.Errorf("inserting %s: %w", rec.Name, err))
		}
		if !ok {
			counts.Duplicates++
			sink.Emit(events.New(runID, events.TypeDuplicateKey, events.SeverityWarning,
				"insert rejected: key collision", map[string]any{"name": rec.Name}))
			continue
		}
		counts.Inserted++
		inserted = append(inserted, rec)
		sink.Emit(events.New(runID, events.TypeEntityInserted, events.SeverityDebug,
			"entity stored", map[string]any{"name": rec.Name, "tier": rec.PrimaryTier}))
	}

	reportDir := ""
	if opts.Reports != nil {
		reportDir = opts.Reports.RunDir(runID)
	}

	elapsed := time.Since(start).Seconds()
	sum, err := aggregate.Summarize(ctx, opts.Store, runID, start.UTC(), elapsed, reportDir, sink)
	if err != nil {
		return nil, abort(runID, sink, err)
	}

	if opts.Reports != nil {
		if _, err := opts.Reports.WriteRun(runID, stageMap(stages), inserted, sum, mem.Events()); err != nil {
			sink.Emit(events.New(runID, events.TypeReportFailed, events.SeverityError,
				"report artifacts not written", map[string]any{"error": err.Error()}))
		}
	}

	if opts.Notifier != nil {
		if err := opts.Notifier.NotifyRunComplete(ctx, sum); err != nil {
			sink.Emit(events.New(runID, events.TypeNotifyFailed, events.SeverityWarning,
				"notification not sent", map[string]any{"error": err.Error()}))
		}
	}

	sink.Emit(events.New(runID, events.TypeRunCompleted, events.SeverityInfo,
		"ingestion run completed", map[string]any{
			"found":           counts.Found,
			"admitted":        counts.Admitted,
			"inserted":        counts.Inserted,
			"duplicates":      counts.Duplicates,
			"skipped":         counts.Skipped,
			"elapsed_seconds": elapsed,
		}))

	return &Result{Summary: sum, Counts: counts, ReportDir: reportDir}, nil
}

// abort reports a storage failure and hands the error to the caller. The
// run's partial state stays in the store, but no summary row is written.
func abort(runID string, sink events.Sink, err error) error {
	sink.Emit(events.New(runID, events.TypeStorageFailure, events.SeverityError,
		"run aborted", map[string]any{"error": err.Error()}))
	sink.Emit(events.New(runID, events.TypeRunFailed, events.SeverityError,
		"ingestion run failed", nil))
	return err
}

// stageMap keys the non-empty stage texts by stage name for the report
// writer's raw dumps.
func stageMap(stages StageOutputs) map[string]string {
	m := make(map[string]string, 4)
	for name, text := range map[string]string{
		"discovery":      stages.Discovery,
		"scoring":        stages.Scoring,
		"categorization": stages.Categorization,
		"reporting":      stages.Reporting,
	} {
		if text != "" {
			m[name] = text
		}
	}
	return m
}
