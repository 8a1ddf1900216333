// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pdiddy/scout-engine/pkg/types"
)

// TopOptions narrows a TopEntities query. Zero values leave the
// corresponding filter off.
type TopOptions struct {
	// Limit caps the result count. Non-positive selects the default of 10.
	Limit int

	// MinScore drops entities scoring below it.
	MinScore int

	// Category matches entities whose category contains the given text.
	Category string

	// Tier restricts results to one primary tier.
	Tier string
}

// TopEntities returns the highest-scoring entities matching opts, ordered
// by descending fit score.
func (s *Store) TopEntities(ctx context.Context, opts TopOptions) ([]types.Entity, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	q := sq.Select(entityColumns...).
		From("entities").
		OrderBy("fit_score DESC", "name ASC").
		Limit(uint64(limit))

	if opts.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"fit_score": opts.MinScore})
	}
	if opts.Category != "" {
		q = q.Where(sq.Like{"category": "%" + opts.Category + "%"})
	}
	if opts.Tier != "" {
		q = q.Where(sq.Eq{"primary_tier": opts.Tier})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building top-entities query: %w", err)
	}

	return s.queryEntities(ctx, query, args...)
}

// Stats summarizes the store contents.
type Stats struct {
	// Entities counts every stored entity.
	Entities int `json:"entities" yaml:"entities"`

	// Tiers maps each primary tier present in the store to its entity count.
	Tiers map[string]int `json:"tiers" yaml:"tiers"`

	// Categories maps each non-empty category to its entity count.
	Categories map[string]int `json:"categories" yaml:"categories"`

	// AvgFitScore is the mean fit score across all entities, 0 when empty.
	AvgFitScore float64 `json:"avg_fit_score" yaml:"avg_fit_score"`

	// TopCountries ranks countries by entity count, descending, at most
	// five entries.
	TopCountries []CountryCount `json:"top_countries" yaml:"top_countries"`

	// Runs counts recorded run summaries.
	Runs int `json:"runs" yaml:"runs"`
}

// CountryCount pairs a country with its entity count.
type CountryCount struct {
	Country string `json:"country" yaml:"country"`
	Count   int    `json:"count" yaml:"count"`
}

const topCountryLimit = 5

// GetStats computes aggregate counts over entities and runs.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats

	query, args, err := sq.Select("count(*)", "coalesce(avg(fit_score), 0)").
		From("entities").ToSql()
	if err != nil {
		return Stats{}, fmt.Errorf("building entity stats query: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&st.Entities, &st.AvgFitScore); err != nil {
		return Stats{}, fmt.Errorf("querying entity stats: %w", err)
	}

	if st.Tiers, err = s.groupCounts(ctx, "primary_tier"); err != nil {
		return Stats{}, err
	}
	if st.Categories, err = s.groupCounts(ctx, "category"); err != nil {
		return Stats{}, err
	}
	if st.TopCountries, err = s.topCountries(ctx); err != nil {
		return Stats{}, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs`).Scan(&st.Runs); err != nil {
		return Stats{}, fmt.Errorf("counting runs: %w", err)
	}

	return st, nil
}

// groupCounts tallies entities by one column, skipping empty values.
func (s *Store) groupCounts(ctx context.Context, column string) (map[string]int, error) {
	query, args, err := sq.Select(column, "count(*)").
		From("entities").
		Where(sq.NotEq{column: ""}).
		GroupBy(column).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s stats query: %w", column, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s stats: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scanning %s stats: %w", column, err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// topCountries ranks countries by entity count. Ties break alphabetically
// so the ranking is stable.
func (s *Store) topCountries(ctx context.Context) ([]CountryCount, error) {
	query, args, err := sq.Select("country", "count(*) AS n").
		From("entities").
		Where(sq.NotEq{"country": ""}).
		GroupBy("country").
		OrderBy("n DESC", "country ASC").
		Limit(topCountryLimit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building country stats query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying country stats: %w", err)
	}
	defer rows.Close()

	var top []CountryCount
	for rows.Next() {
		var cc CountryCount
		if err := rows.Scan(&cc.Country, &cc.Count); err != nil {
			return nil, fmt.Errorf("scanning country stats: %w", err)
		}
		top = append(top, cc)
	}
	return top, rows.Err()
}

// String renders the stats as the fixed-width block used by the CLI.
func (st Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entities: %d\n", st.Entities)
	for _, tier := range []string{"Tier 1", "Tier 2", "Tier 3"} {
		if n, ok := st.Tiers[tier]; ok {
			fmt.Fprintf(&b, "  %s: %d\n", tier, n)
		}
	}
	fmt.Fprintf(&b, "avg fit score: %.1f\n", st.AvgFitScore)
	if len(st.Categories) > 0 {
		fmt.Fprintf(&b, "categories: %d\n", len(st.Categories))
	}
	if len(st.TopCountries) > 0 {
		b.WriteString("top countries:\n")
		for _, cc := range st.TopCountries {
			fmt.Fprintf(&b, "  %s: %d\n", cc.Country, cc.Count)
		}
	}
	fmt.Fprintf(&b, "runs: %d", st.Runs)
	return b.String()
}
