// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus records the terminal state of a pipeline run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunSummary aggregates one completed pipeline execution. It is written
// exactly once per run, after all insert attempts have finished, and is
// immutable thereafter.
type RunSummary struct {
	// RunID is the caller-supplied run identifier, unique across runs.
	RunID string `json:"run_id" yaml:"run_id"`

	// RunDate is when the run started.
	RunDate time.Time `json:"run_date" yaml:"run_date"`

	// TotalFound counts every stored entity, including those outside the
	// three tier buckets.
	TotalFound int `json:"total_found" yaml:"total_found"`

	Tier1Count int `json:"tier1_count" yaml:"tier1_count"`
	Tier2Count int `json:"tier2_count" yaml:"tier2_count"`
	Tier3Count int `json:"tier3_count" yaml:"tier3_count"`

	// ProcessingTime is the wall-clock duration of the run in seconds,
	// measured by the caller.
	ProcessingTime float64 `json:"processing_time_seconds" yaml:"processing_time_seconds"`

	// Status is completed or failed.
	Status RunStatus `json:"status" yaml:"status"`

	// ReportPath locates the run's report artifacts on disk.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// CreatedAt is stamped by the store on insert.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// NewRunID formats t as a run identifier, e.g. "run_20260821143005".
func NewRunID(t time.Time) string {
	return "run_" + t.Format("20060102150405")
}
