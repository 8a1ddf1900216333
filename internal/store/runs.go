// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scout-engine/pkg/types"
)

const runColumns = `run_id, run_date, total_found, tier1_count, tier2_count,
	tier3_count, processing_time_seconds, status, report_path, created_at`

// InsertRun writes one run summary, stamping CreatedAt. It returns
// (false, nil) when the run ID already exists; summaries are written once
// and never updated.
func (s *Store) InsertRun(ctx context.Context, sum types.RunSummary) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.RunDate.UTC().Format(time.RFC3339Nano),
		sum.TotalFound, sum.Tier1Count, sum.Tier2Count, sum.Tier3Count,
		sum.ProcessingTime, string(sum.Status), sum.ReportPath, now,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("inserting run %s: %w", sum.RunID, err)
	}

	return true, nil
}

// LatestRun returns the most recently recorded run summary, or nil when
// no runs have been recorded. Row id order is insertion order.
func (s *Store) LatestRun(ctx context.Context) (*types.RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT 1`)

	sum, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	return &sum, nil
}

// ListRuns returns up to limit run summaries, most recent first. A
// non-positive limit selects the default of 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var sums []types.RunSummary
	for rows.Next() {
		sum, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	return sums, rows.Err()
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (types.RunSummary, error) {
	var (
		sum       types.RunSummary
		runDate   string
		status    string
		createdAt string
	)

	err := row.Scan(
		&sum.RunID, &runDate, &sum.TotalFound,
		&sum.Tier1Count, &sum.Tier2Count, &sum.Tier3Count,
		&sum.ProcessingTime, &status, &sum.ReportPath, &createdAt,
	)
	if err == sql.ErrNoRows {
		return types.RunSummary{}, err
	}
	if err != nil {
		return types.RunSummary{}, fmt.Errorf("scanning run row: %w", err)
	}

	sum.RunDate = parseTimestamp(runDate)
	sum.Status = types.RunStatus(status)
	sum.CreatedAt = parseTimestamp(createdAt)

	return sum, nil
}
