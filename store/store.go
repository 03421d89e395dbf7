// Package store persists the run log in a local SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

// Compile-time check to ensure Store implements RunStore
var _ interfaces.RunStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TEXT,
	finished_at TEXT,
	mode TEXT NOT NULL,
	session_id TEXT,
	query_json TEXT,
	matches_count INTEGER,
	reference_options_count INTEGER,
	selected_reference_drug TEXT,
	selection_rows_count INTEGER,
	selection_json TEXT,
	selection_file_path TEXT,
	router_output_text TEXT,
	router_output_path TEXT
);

CREATE TABLE IF NOT EXISTS synopsis_runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	status TEXT NOT NULL,
	source_run_id TEXT NOT NULL,
	template_path TEXT,
	prompt_path TEXT,
	attributes_json TEXT,
	output_markdown TEXT,
	output_docx_path TEXT,
	error_text TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_synopsis_runs_source ON synopsis_runs(source_run_id);
`

// Columns that UpdateRun / UpdateSynopsisRun may touch. Everything else is
// set once on insert.
var runUpdateColumns = map[string]bool{
	"status":                  true,
	"started_at":              true,
	"finished_at":             true,
	"session_id":              true,
	"query_json":              true,
	"matches_count":           true,
	"reference_options_count": true,
	"selected_reference_drug": true,
	"selection_rows_count":    true,
	"selection_json":          true,
	"selection_file_path":     true,
	"router_output_text":      true,
	"router_output_path":      true,
}

var synopsisUpdateColumns = map[string]bool{
	"status":           true,
	"template_path":    true,
	"prompt_path":      true,
	"attributes_json":  true,
	"output_markdown":  true,
	"output_docx_path": true,
	"error_text":       true,
}

// Store is a SQLite-backed run log
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the run log database at the given path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run log database: %w", err)
	}

	// Single writer; WAL lets readers proceed during writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run log schema: %w", err)
	}

	logging.Info("Run log database opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRun inserts a new run row
func (s *Store) InsertRun(run interfaces.RunRecord) error {
	_, err := s.db.NamedExec(`
		INSERT INTO runs (
			id, created_at, status, started_at, finished_at, mode, session_id,
			query_json, matches_count, reference_options_count,
			selected_reference_drug, selection_rows_count, selection_json,
			selection_file_path, router_output_text, router_output_path
		) VALUES (
			:id, :created_at, :status, :started_at, :finished_at, :mode, :session_id,
			:query_json, :matches_count, :reference_options_count,
			:selected_reference_drug, :selection_rows_count, :selection_json,
			:selection_file_path, :router_output_text, :router_output_path
		)`, run)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun updates the given columns of a run row
func (s *Store) UpdateRun(runID string, fields map[string]any) error {
	return s.update("runs", runUpdateColumns, runID, fields)
}

// GetRun returns the run with the given id, or nil if it does not exist
func (s *Store) GetRun(runID string) (*interfaces.RunRecord, error) {
	var run interfaces.RunRecord
	err := s.db.Get(&run, "SELECT * FROM runs WHERE id = ?", runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first. An empty status
// returns runs in any status.
func (s *Store) ListRuns(limit int, status string) ([]interfaces.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	runs := []interfaces.RunRecord{}
	var err error
	if status == "" {
		err = s.db.Select(&runs,
			"SELECT * FROM runs ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	} else {
		err = s.db.Select(&runs,
			"SELECT * FROM runs WHERE status = ? ORDER BY created_at DESC, id DESC LIMIT ?",
			status, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its synopsis rows. Returns false if the run
// did not exist.
func (s *Store) DeleteRun(runID string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return false, fmt.Errorf("deleting run %s: %w", runID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting run %s: %w", runID, err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := s.db.Exec("DELETE FROM synopsis_runs WHERE source_run_id = ?", runID); err != nil {
		return false, fmt.Errorf("deleting synopsis runs for %s: %w", runID, err)
	}
	return true, nil
}

// InsertSynopsisRun inserts a new synopsis run row
func (s *Store) InsertSynopsisRun(run interfaces.SynopsisRunRecord) error {
	_, err := s.db.NamedExec(`
		INSERT INTO synopsis_runs (
			id, created_at, status, source_run_id, template_path, prompt_path,
			attributes_json, output_markdown, output_docx_path, error_text
		) VALUES (
			:id, :created_at, :status, :source_run_id, :template_path, :prompt_path,
			:attributes_json, :output_markdown, :output_docx_path, :error_text
		)`, run)
	if err != nil {
		return fmt.Errorf("inserting synopsis run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateSynopsisRun updates the given columns of a synopsis run row
func (s *Store) UpdateSynopsisRun(synopsisID string, fields map[string]any) error {
	return s.update("synopsis_runs", synopsisUpdateColumns, synopsisID, fields)
}

// LatestSynopsisForRun returns the newest synopsis row for a run, or nil
// if the run has none
func (s *Store) LatestSynopsisForRun(runID string) (*interfaces.SynopsisRunRecord, error) {
	var run interfaces.SynopsisRunRecord
	err := s.db.Get(&run, `
		SELECT * FROM synopsis_runs
		WHERE source_run_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading synopsis for run %s: %w", runID, err)
	}
	return &run, nil
}

// update builds a SET clause from the allowed subset of fields
func (s *Store) update(table string, allowed map[string]bool, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !allowed[column] {
			return fmt.Errorf("column %s of %s cannot be updated", column, table)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for _, column := range columns {
		assignments = append(assignments, column+" = ?")
		args = append(args, fields[column])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(assignments, ", "))
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("updating %s %s: %w", table, id, err)
	}
	return nil
}
