// Package history keeps a SQLite ledger of pipeline runs.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one execution of the job set.
type Run struct {
	ID         string
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string
	Jobs       []JobResult
}

// JobResult is the outcome of one job within a run.
type JobResult struct {
	Job      string
	Output   string
	Rows     int
	Cols     int
	Written  bool
	Duration time.Duration
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db *sql.DB
}

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	// SQLite: one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	_, err = s.db.Exec(string(schemaSQL))
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Begin records a run as running.
func (s *Store) Begin(ctx context.Context, id, input string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, started_at, status) VALUES (?, ?, ?, ?)`,
		id, input, startedAt.UTC(), StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", id, err)
	}
	return nil
}

// Finish stores the job results and the final status of a run.
func (s *Store) Finish(ctx context.Context, id string, finishedAt time.Time, jobs []JobResult, runErr error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, j := range jobs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO job_results (run_id, job, output, rows, cols, written, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, j.Job, j.Output, j.Rows, j.Cols, j.Written, j.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to record job %s: %w", j.Job, err)
		}
	}

	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		finishedAt.UTC(), status, msg, id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return tx.Commit()
}

// Recent returns the latest runs, newest first, with their job results.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, started_at, finished_at, status, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Input, &r.StartedAt, &finished, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		jobs, err := s.jobs(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Jobs = jobs
	}
	return runs, nil
}

func (s *Store) jobs(ctx context.Context, runID string) ([]JobResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job, output, rows, cols, written, duration_ms
		 FROM job_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job results: %w", err)
	}
	defer rows.Close()

	var out []JobResult
	for rows.Next() {
		var (
			j  JobResult
			ms int64
		)
		if err := rows.Scan(&j.Job, &j.Output, &j.Rows, &j.Cols, &j.Written, &ms); err != nil {
			return nil, err
		}
		j.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, j)
	}
	return out, rows.Err()
}
