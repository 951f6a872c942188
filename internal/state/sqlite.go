package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the store at path and migrates it.
// ":memory:" opens an in-memory store.
func Open(path string) (*SQLiteStore, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun records the start of a run against the named workflow file.
func (s *SQLiteStore) CreateRun(workflow string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Workflow:  workflow,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, workflow, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Workflow, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished with its final status, error text, and
// serialized summary.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg, statsJSON string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, stats_json = ? WHERE id = ?`,
		string(status), now, errMsg, statsJSON, id,
	)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves one run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, workflow, status, started_at, completed_at, error, stats_json FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, workflow, status, started_at, completed_at, error, stats_json FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveWarnings persists the recovered warnings of a run.
func (s *SQLiteStore) SaveWarnings(runID string, warnings []meta.Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving warnings: %w", err)
	}
	for _, w := range warnings {
		_, err := tx.Exec(
			`INSERT INTO warnings (run_id, component, subject, message, occurred_at) VALUES (?, ?, ?, ?, ?)`,
			runID, w.Component, w.Subject, w.Message, w.OccurredAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("saving warnings: %w", err)
		}
	}
	return tx.Commit()
}

// GetWarnings returns the warnings of a run in insertion order.
func (s *SQLiteStore) GetWarnings(runID string) ([]meta.Warning, error) {
	rows, err := s.db.Query(
		`SELECT component, subject, message, occurred_at FROM warnings WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("getting warnings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var warnings []meta.Warning
	for rows.Next() {
		var w meta.Warning
		if err := rows.Scan(&w.Component, &w.Subject, &w.Message, &w.OccurredAt); err != nil {
			return nil, fmt.Errorf("getting warnings: %w", err)
		}
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var status string
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Workflow, &status, &run.StartedAt, &completedAt, &run.Error, &run.StatsJSON)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
