// Package store keeps a local history of translation runs in SQLite, so
// earlier runs can be inspected after the fact: which files were processed,
// how many rows each run translated, and which rows the QA gate rejected and
// why.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RunRecord is one completed (or aborted) translation run.
type RunRecord struct {
	ID         string
	InputFile  string
	OutputFile string
	Provider   string
	SourceLang string
	TargetLang string

	TotalRows  int
	Eligible   int
	Translated int
	Skipped    int
	QAFailed   int
	Errors     int

	Aborted     bool
	AbortReason string
	ElapsedMs   int64
	CreatedAt   time.Time
}

// RowRecord is the recorded outcome for one row of a run.
type RowRecord struct {
	RunID   string
	RowNum  int
	Source  string
	Outcome string
	Detail  string
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the run-history database at path, creating parent
// directories as needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc/sqlite is not safe for concurrent writers on one connection
	// pool; the CLI is single-user, so one connection is enough.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		input_file   TEXT NOT NULL,
		output_file  TEXT NOT NULL,
		provider     TEXT NOT NULL,
		source_lang  TEXT NOT NULL,
		target_lang  TEXT NOT NULL,
		total_rows   INTEGER NOT NULL,
		eligible     INTEGER NOT NULL,
		translated   INTEGER NOT NULL,
		skipped      INTEGER NOT NULL,
		qa_failed    INTEGER NOT NULL,
		errors       INTEGER NOT NULL,
		aborted      INTEGER NOT NULL DEFAULT 0,
		abort_reason TEXT NOT NULL DEFAULT '',
		elapsed_ms   INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS row_outcomes (
		run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		row_num INTEGER NOT NULL,
		source  TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_row_outcomes_run ON row_outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun persists a run and its per-row outcomes in one transaction. An
// empty rec.ID gets a fresh UUID; the chosen ID is returned.
func (s *Store) SaveRun(rec RunRecord, rows []RowRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, input_file, output_file, provider, source_lang, target_lang,
			total_rows, eligible, translated, skipped, qa_failed, errors,
			aborted, abort_reason, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.InputFile, rec.OutputFile, rec.Provider, rec.SourceLang, rec.TargetLang,
		rec.TotalRows, rec.Eligible, rec.Translated, rec.Skipped, rec.QAFailed, rec.Errors,
		boolToInt(rec.Aborted), rec.AbortReason, rec.ElapsedMs, rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO row_outcomes (run_id, row_num, source, outcome, detail)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(rec.ID, row.RowNum, row.Source, row.Outcome, row.Detail); err != nil {
			return "", fmt.Errorf("failed to insert row outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return rec.ID, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	query := `
		SELECT id, input_file, output_file, provider, source_lang, target_lang,
			total_rows, eligible, translated, skipped, qa_failed, errors,
			aborted, abort_reason, elapsed_ms, created_at
		FROM runs ORDER BY created_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRun looks a run up by full ID or by unique ID prefix.
func (s *Store) GetRun(id string) (*RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, input_file, output_file, provider, source_lang, target_lang,
			total_rows, eligible, translated, skipped, qa_failed, errors,
			aborted, abort_reason, elapsed_ms, created_at
		FROM runs WHERE id = ? OR id LIKE ? LIMIT 2`, id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	defer rows.Close()

	var matches []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run %q not found", id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous", id)
	}
}

// RowOutcomes returns the per-row records of a run in row order.
func (s *Store) RowOutcomes(runID string) ([]RowRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, row_num, source, outcome, detail
		FROM row_outcomes WHERE run_id = ? ORDER BY row_num`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list row outcomes: %w", err)
	}
	defer rows.Close()

	var out []RowRecord
	for rows.Next() {
		var rec RowRecord
		if err := rows.Scan(&rec.RunID, &rec.RowNum, &rec.Source, &rec.Outcome, &rec.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan row outcome: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ClearRuns deletes all history and returns the number of runs removed.
func (s *Store) ClearRuns() (int64, error) {
	if _, err := s.db.Exec(`DELETE FROM row_outcomes`); err != nil {
		return 0, fmt.Errorf("failed to clear row outcomes: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var rec RunRecord
	var aborted int
	var createdAt string
	err := rows.Scan(&rec.ID, &rec.InputFile, &rec.OutputFile, &rec.Provider,
		&rec.SourceLang, &rec.TargetLang,
		&rec.TotalRows, &rec.Eligible, &rec.Translated, &rec.Skipped, &rec.QAFailed, &rec.Errors,
		&aborted, &rec.AbortReason, &rec.ElapsedMs, &createdAt)
	if err != nil {
		return rec, fmt.Errorf("failed to scan run: %w", err)
	}
	rec.Aborted = aborted != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
