// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate computes and persists per-run summaries from the
// entity store.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/store"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// Summarize reads the full post-insert store contents, buckets entities
// into the three tier counts, and persists one RunSummary for runID.
// Entities carrying any other tier label count toward TotalFound only.
//
// Elapsed is the run's wall-clock duration in seconds as measured by the
// caller. A summary that collides with an already-recorded runID is
// reported through the sink and returned, but the stored row is not
// updated.
func Summarize(ctx context.Context, st *store.Store, runID string, runDate time.Time, elapsed float64, reportPath string, sink events.Sink) (types.RunSummary, error) {
	sink = events.OrDiscard(sink)

	entities, err := st.ListAll(ctx)
	if err != nil {
		return types.RunSummary{}, fmt.Errorf("reading store for aggregation: %w", err)
	}

	sum := types.RunSummary{
		RunID:          runID,
		RunDate:        runDate,
		TotalFound:     len(entities),
		ProcessingTime: elapsed,
		Status:         types.RunCompleted,
		ReportPath:     reportPath,
	}
	for _, e := range entities {
		switch e.PrimaryTier {
		case types.TierOne:
			sum.Tier1Count++
		case types.TierTwo:
			sum.Tier2Count++
		case types.TierThree:
			sum.Tier3Count++
		}
	}

	inserted, err := st.InsertRun(ctx, sum)
	if err != nil {
		return types.RunSummary{}, fmt.Errorf("persisting run summary: %w", err)
	}
	if !inserted {
		sink.Emit(events.New(runID, events.TypeDuplicateKey, events.SeverityWarning,
			"run summary already recorded", map[string]any{"run_id": runID}))
		return sum, nil
	}

	sink.Emit(events.New(runID, events.TypeRunAggregated, events.SeverityInfo,
		"run summary recorded", map[string]any{
			"total_found": sum.TotalFound,
			"tier1":       sum.Tier1Count,
			"tier2":       sum.Tier2Count,
			"tier3":       sum.Tier3Count,
		}))

	return sum, nil
}
