package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clipreel/internal/config"
)

// ErrNotFound reports an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a run as started.
func (s *Store) BeginRun(ctx context.Context, id, project string, startedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("begin run: empty id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project, status, started_at) VALUES (?, ?, ?, ?)`,
		id, project, StatusRunning, formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordClip stores a per-file outcome for a run.
func (s *Store) RecordClip(ctx context.Context, runID, stage, path string, ok bool, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_clips (run_id, stage, path, ok, detail, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, path, boolToInt(ok), nullableString(detail), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert clip: %w", err)
	}
	return nil
}

// FinishRun stores a run's outcome.
func (s *Store) FinishRun(ctx context.Context, id string, outcome Outcome) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET
            status = ?, finished_at = ?,
            copied = ?, skipped = ?, ingest_failed = ?,
            annotated = ?, annotate_failed = ?, bytes_copied = ?,
            output_path = ?, compiled = ?, elapsed_ms = ?, error_message = ?
        WHERE id = ?`,
		outcome.Status, formatTime(time.Now()),
		outcome.Copied, outcome.Skipped, outcome.IngestFailed,
		outcome.Annotated, outcome.AnnotateFailed, outcome.BytesCopied,
		nullableString(outcome.OutputPath), boolToInt(outcome.Compiled), outcome.Elapsed.Milliseconds(),
		nullableString(outcome.Error),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

const runColumns = `id, project, status, started_at, finished_at,
    copied, skipped, ingest_failed, annotated, annotate_failed, bytes_copied,
    output_path, compiled, elapsed_ms, error_message`

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by ID or unique ID prefix.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`,
		len(id), id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// RunClips returns the clip records of a run in insertion order.
func (s *Store) RunClips(ctx context.Context, runID string) ([]Clip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, stage, path, ok, detail, recorded_at FROM run_clips WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		var (
			clip     Clip
			ok       int
			detail   sql.NullString
			recorded string
		)
		if err := rows.Scan(&clip.ID, &clip.RunID, &clip.Stage, &clip.Path, &ok, &detail, &recorded); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clip.OK = ok != 0
		clip.Detail = detail.String
		clip.RecordedAt = parseTime(recorded)
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		status   string
		started  string
		finished sql.NullString
		output   sql.NullString
		compiled int
		elapsed  int64
		errMsg   sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.Project, &status, &started, &finished,
		&run.Copied, &run.Skipped, &run.IngestFailed, &run.Annotated, &run.AnnotateFailed, &run.BytesCopied,
		&output, &compiled, &elapsed, &errMsg,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	run.OutputPath = output.String
	run.Compiled = compiled != 0
	run.Elapsed = time.Duration(elapsed) * time.Millisecond
	run.Error = errMsg.String
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
