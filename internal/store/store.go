// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists admitted entities and run summaries in a local
// SQLite database and provides the query surface over them. Entities are
// insert-only: a write that collides with an existing name or content hash
// is reported as not-inserted and never mutates the stored row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scout-engine/pkg/types"
)

const defaultDBPath = "data/scout.db"

// Store manages the entity database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at cfg.Path, creating
// parent directories as needed. Schema creation is idempotent: opening an
// existing database leaves its contents intact.
func NewStore(cfg types.StorageConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBPath
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			website TEXT,
			description TEXT,
			category TEXT,
			founded_date TEXT,
			country TEXT,
			source TEXT,
			source_url TEXT,
			fit_score INTEGER DEFAULT 0,
			fit_analysis TEXT,
			primary_tier TEXT,
			secondary_tiers TEXT,
			content_hash TEXT UNIQUE,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_tier ON entities(primary_tier)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_score ON entities(fit_score)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			run_date TEXT,
			total_found INTEGER DEFAULT 0,
			tier1_count INTEGER DEFAULT 0,
			tier2_count INTEGER DEFAULT 0,
			tier3_count INTEGER DEFAULT 0,
			processing_time_seconds REAL DEFAULT 0,
			status TEXT,
			report_path TEXT,
			created_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// entityColumns is the select list shared by every entity query, in the
// order scanEntity expects.
var entityColumns = []string{
	"name", "website", "description", "category", "founded_date", "country",
	"source", "source_url", "fit_score", "fit_analysis", "primary_tier",
	"secondary_tiers", "content_hash", "created_at", "updated_at",
}

// InsertEntity writes e, stamping CreatedAt and UpdatedAt. It returns
// (false, nil) when the name or content hash collides with an existing
// row; the stored row is left untouched in that case.
func (s *Store) InsertEntity(ctx context.Context, e types.Entity) (bool, error) {
	tiersJSON, _ := json.Marshal(e.SecondaryTiers)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (`+strings.Join(entityColumns, ", ")+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Website, e.Description, e.Category, e.FoundedDate,
		e.Country, e.Source, e.SourceURL, e.FitScore, e.FitAnalysis,
		e.PrimaryTier, string(tiersJSON), e.ContentHash, now, now,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("inserting entity %s: %w", e.Name, err)
	}

	return true, nil
}

// ListAll returns every stored entity, most recently inserted first. The
// table is insert-only, so row id order is exact insertion order; the
// textual created_at column is informational.
func (s *Store) ListAll(ctx context.Context) ([]types.Entity, error) {
	return s.queryEntities(ctx,
		`SELECT `+strings.Join(entityColumns, ", ")+` FROM entities
		 ORDER BY id DESC`)
}

// ListByTier returns entities whose primary tier matches, ordered by
// descending fit score.
func (s *Store) ListByTier(ctx context.Context, tier string) ([]types.Entity, error) {
	return s.queryEntities(ctx,
		`SELECT `+strings.Join(entityColumns, ", ")+` FROM entities
		 WHERE primary_tier = ? ORDER BY fit_score DESC, name ASC`, tier)
}

// Names returns all stored entity names in insertion order. The pipeline
// seeds its duplicate-detection reference set from this list, so the
// order is fixed rather than left to the database.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying entity names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of stored entities.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	return n, nil
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...any) ([]types.Entity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func scanEntity(rows *sql.Rows) (types.Entity, error) {
	var (
		e         types.Entity
		tiersJSON sql.NullString
		createdAt string
		updatedAt string
	)

	err := rows.Scan(
		&e.Name, &e.Website, &e.Description, &e.Category, &e.FoundedDate,
		&e.Country, &e.Source, &e.SourceURL, &e.FitScore, &e.FitAnalysis,
		&e.PrimaryTier, &tiersJSON, &e.ContentHash, &createdAt, &updatedAt,
	)
	if err != nil {
		return types.Entity{}, fmt.Errorf("scanning entity row: %w", err)
	}

	if tiersJSON.Valid {
		json.Unmarshal([]byte(tiersJSON.String), &e.SecondaryTiers)
	}
	e.CreatedAt = parseTimestamp(createdAt)
	e.UpdatedAt = parseTimestamp(updatedAt)

	return e, nil
}

// parseTimestamp reads a stored RFC3339Nano timestamp, returning the zero
// time for values written by hand or by older schema versions.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
