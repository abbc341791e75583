// Package store keeps the history of project runs in SQLite: one row per
// run, the digest of every checked file and every finding.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"webcheck/internal/config"
	"webcheck/internal/report"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	project     TEXT    NOT NULL,
	started_at  TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL,
	files       INTEGER NOT NULL,
	bytes       INTEGER NOT NULL,
	changed     INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	warnings    INTEGER NOT NULL,
	infos       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project, id);

CREATE TABLE IF NOT EXISTS files (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path   TEXT    NOT NULL,
	kind   TEXT    NOT NULL,
	size   INTEGER NOT NULL,
	digest TEXT    NOT NULL,
	PRIMARY KEY (run_id, path)
);

CREATE TABLE IF NOT EXISTS findings (
	run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	id         TEXT    NOT NULL,
	file       TEXT    NOT NULL,
	category   TEXT    NOT NULL,
	check_name TEXT    NOT NULL,
	severity   TEXT    NOT NULL,
	line       INTEGER NOT NULL,
	col        INTEGER NOT NULL,
	message    TEXT    NOT NULL,
	subject    TEXT    NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Run is the summary row of a stored run.
type Run struct {
	ID         int64     `json:"id"`
	Project    string    `json:"project"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Files      int       `json:"files"`
	Bytes      int64     `json:"bytes"`
	Changed    int       `json:"changed"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	Infos      int       `json:"infos"`
}

// FindingFilter narrows Findings. Empty fields match everything.
type FindingFilter struct {
	File     string
	Category string
	Check    string
	Severity string
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  querier
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := config.EnsureDir(path); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps :memory: databases alive and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, q: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTransaction runs fn against a store bound to one transaction. The
// transaction commits when fn returns nil.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SaveRun stores a report with its files and findings and sets r.RunID.
func (s *Store) SaveRun(ctx context.Context, r *report.Report) (int64, error) {
	var id int64
	err := s.WithTransaction(ctx, func(tx *Store) error {
		res, err := tx.q.ExecContext(ctx, `INSERT INTO runs
			(project, started_at, duration_ms, files, bytes, changed, errors, warnings, infos)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Project, r.StartedAt.UTC().Format(time.RFC3339Nano), r.Duration.Milliseconds(),
			r.Files, r.Bytes, r.Changed,
			r.Count(report.SeverityError), r.Count(report.SeverityWarning), r.Count(report.SeverityInfo))
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		for _, src := range r.Sources {
			if _, err := tx.q.ExecContext(ctx,
				`INSERT INTO files (run_id, path, kind, size, digest) VALUES (?, ?, ?, ?, ?)`,
				id, src.Path, src.Kind, src.Size, src.Digest); err != nil {
				return fmt.Errorf("insert file %s: %w", src.Path, err)
			}
		}
		for i, f := range r.Findings {
			if _, err := tx.q.ExecContext(ctx, `INSERT INTO findings
				(run_id, seq, id, file, category, check_name, severity, line, col, message, subject)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, f.ID, f.File, f.Category, f.Check, f.Severity, f.Line, f.Column, f.Message, f.Subject); err != nil {
				return fmt.Errorf("insert finding: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.RunID = id
	return id, nil
}

const runColumns = `id, project, started_at, duration_ms, files, bytes, changed, errors, warnings, infos`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var started string
	if err := row.Scan(&r.ID, &r.Project, &started, &r.DurationMS, &r.Files, &r.Bytes,
		&r.Changed, &r.Errors, &r.Warnings, &r.Infos); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("run %d: bad start time: %w", r.ID, err)
	}
	r.StartedAt = t
	return r, nil
}

// ListRuns returns the most recent runs first. An empty project lists every
// project; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, project string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, id int64) (Run, error) {
	r, err := scanRun(s.q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

// Findings returns the findings of a run in their stored order.
func (s *Store) Findings(ctx context.Context, runID int64, filter FindingFilter) ([]report.Finding, error) {
	query := `SELECT id, file, category, check_name, severity, line, col, message, subject
		FROM findings WHERE run_id = ?`
	args := []any{runID}
	for _, c := range []struct{ column, value string }{
		{"file", filter.File},
		{"category", filter.Category},
		{"check_name", filter.Check},
		{"severity", filter.Severity},
	} {
		if c.value != "" {
			query += ` AND ` + c.column + ` = ?`
			args = append(args, c.value)
		}
	}
	query += ` ORDER BY seq`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var out []report.Finding
	for rows.Next() {
		var f report.Finding
		if err := rows.Scan(&f.ID, &f.File, &f.Category, &f.Check, &f.Severity,
			&f.Line, &f.Column, &f.Message, &f.Subject); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Files returns the files checked by a run, ordered by path.
func (s *Store) Files(ctx context.Context, runID int64) ([]report.Source, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT path, kind, size, digest FROM files WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []report.Source
	for rows.Next() {
		var src report.Source
		if err := rows.Scan(&src.Path, &src.Kind, &src.Size, &src.Digest); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// LatestDigests maps the file paths of the project's most recent run to
// their digests. It returns an empty map for a project without runs.
func (s *Store) LatestDigests(ctx context.Context, project string) (map[string]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT path, digest FROM files
		WHERE run_id = (SELECT MAX(id) FROM runs WHERE project = ?)`, project)
	if err != nil {
		return nil, fmt.Errorf("load digests: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var path, digest string
		if err := rows.Scan(&path, &digest); err != nil {
			return nil, err
		}
		out[path] = digest
	}
	return out, rows.Err()
}
