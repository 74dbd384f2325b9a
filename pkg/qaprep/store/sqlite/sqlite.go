package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	command TEXT NOT NULL,
	input TEXT,
	output TEXT,
	row_count INTEGER DEFAULT 0,
	column_names TEXT,
	status TEXT NOT NULL,
	error TEXT,
	started_at TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS run_stages (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	name TEXT NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	error TEXT,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// RecordRun inserts a new running run
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) (store.Run, error) {
	r = store.Prepare(r)
	columnsJSON, err := json.Marshal(r.Columns)
	if err != nil {
		return store.Run{}, err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, command, input, output, row_count, column_names, status, error, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.Command, r.Input, r.Output, r.Rows, string(columnsJSON), string(r.Status), r.Error, formatTime(r.StartedAt))
	if err != nil {
		return store.Run{}, fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return r, nil
}

// FinishRun records the outcome of a run
func (s *sqliteStore) FinishRun(ctx context.Context, id string, res store.Result) error {
	r := store.Finish(store.Run{}, res, time.Now().UTC())
	columnsJSON, err := json.Marshal(r.Columns)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
UPDATE runs SET row_count = ?, column_names = ?, status = ?, error = ?, finished_at = ?
WHERE id = ?;
`, r.Rows, string(columnsJSON), string(r.Status), r.Error, formatTime(r.FinishedAt), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

// AddStage appends a stage timing to a run
func (s *sqliteStore) AddStage(ctx context.Context, runID string, st store.Stage) error {
	if !s.exists(ctx, runID) {
		return fmt.Errorf("add stage to run %s: %w", runID, internalerr.ErrNotFound)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO run_stages (run_id, seq, name, elapsed_ns, error)
SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?
FROM run_stages WHERE run_id = ?;
`, runID, st.Name, st.Elapsed.Nanoseconds(), st.Error, runID)
	if err != nil {
		return fmt.Errorf("add stage to run %s: %w", runID, err)
	}
	return nil
}

func (s *sqliteStore) exists(ctx context.Context, id string) bool {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n)
	return err == nil && n > 0
}

// GetRun retrieves a run with its stages
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, command, input, output, row_count, column_names, status, error, started_at, finished_at
FROM runs WHERE id = ?;
`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	r.Stages, err = s.loadStages(ctx, id)
	if err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

// ListRuns lists the newest runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, command, input, output, row_count, column_names, status, error, started_at, finished_at
FROM runs
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Stages, err = s.loadStages(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *sqliteStore) loadStages(ctx context.Context, runID string) ([]store.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, elapsed_ns, COALESCE(error, '')
FROM run_stages WHERE run_id = ?
ORDER BY seq;
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []store.Stage
	for rows.Next() {
		var st store.Stage
		var ns int64
		if err := rows.Scan(&st.Name, &ns, &st.Error); err != nil {
			return nil, err
		}
		st.Elapsed = time.Duration(ns)
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (store.Run, error) {
	var r store.Run
	var input, output, columnsJSON, errText, finished sql.NullString
	var status, started string
	if err := row.Scan(&r.ID, &r.Command, &input, &output, &r.Rows, &columnsJSON, &status, &errText, &started, &finished); err != nil {
		return store.Run{}, err
	}
	r.Input = input.String
	r.Output = output.String
	r.Error = errText.String
	r.Status = store.Status(status)

	if columnsJSON.Valid && columnsJSON.String != "" {
		if err := json.Unmarshal([]byte(columnsJSON.String), &r.Columns); err != nil {
			return store.Run{}, err
		}
	}

	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return store.Run{}, err
	}
	if finished.Valid && finished.String != "" {
		if r.FinishedAt, err = parseTime(finished.String); err != nil {
			return store.Run{}, err
		}
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
