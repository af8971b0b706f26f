// Package ledger keeps a SQLite history of runs and their per-item outcomes.
// Only the leader writes to it.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"snapkeep/internal/logging"
	"snapkeep/internal/work"
)

// ErrUnknownRun is returned when a run id is not in the ledger.
var ErrUnknownRun = errors.New("unknown run")

// Run is one recorded run.
type Run struct {
	ID         string
	Kind       string
	Workers    int
	Items      int
	Errors     int
	Summary    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is open
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Ledger is a run history backed by SQLite.
type Ledger struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.LedgerError("failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.LedgerError("failed to set busy_timeout: %v", err)
	}

	l := &Ledger{db: db, path: path, now: time.Now}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Ledger("opened run ledger %s", path)
	return l, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		workers INTEGER NOT NULL,
		items INTEGER NOT NULL,
		errors INTEGER NOT NULL DEFAULT 0,
		summary TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		item TEXT NOT NULL,
		status TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// BeginRun records the start of a run and returns its id.
func (l *Ledger) BeginRun(ctx context.Context, kind string, workers, items int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, workers, items, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, kind, workers, items, l.now().UnixMilli(),
	)
	if err != nil {
		logging.LedgerError("failed to begin %s run: %v", kind, err)
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	logging.Ledger("began %s run %s (%d workers, %d items)", kind, id, workers, items)
	return id, nil
}

// RecordOutcomes stores outcomes for runID in one transaction.
func (l *Ledger) RecordOutcomes(ctx context.Context, runID string, outcomes []work.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes (run_id, item, status, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, runID, o.Item, o.Status.String(), o.Text); err != nil {
			logging.LedgerError("failed to record outcome for %s: %v", o.Item, err)
			return fmt.Errorf("failed to record outcome for %s: %w", o.Item, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outcomes: %w", err)
	}
	return nil
}

// FinishRun closes runID with its error count and summary line.
func (l *Ledger) FinishRun(ctx context.Context, runID string, errCount int, summary string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET errors = ?, summary = ?, finished_at = ? WHERE id = ?`,
		errCount, summary, l.now().UnixMilli(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	logging.Ledger("finished run %s: %d errors", runID, errCount)
	return nil
}

// Runs returns up to limit runs, newest first. limit <= 0 means 20.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	timer := logging.StartTimer(logging.CategoryLedger, "Runs")
	defer timer.Stop()

	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, kind, workers, items, errors, summary, started_at, finished_at
		 FROM runs
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Workers, &r.Items, &r.Errors, &r.Summary, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		if finished > 0 {
			r.FinishedAt = time.UnixMilli(finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the outcomes recorded for runID in insertion order.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]work.Outcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT item, status, text FROM outcomes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var out []work.Outcome
	for rows.Next() {
		var o work.Outcome
		var status string
		if err := rows.Scan(&o.Item, &status, &o.Text); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Status = parseStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func parseStatus(s string) work.Status {
	switch s {
	case work.StatusOK.String():
		return work.StatusOK
	case work.StatusFailed.String():
		return work.StatusFailed
	default:
		return work.StatusPass
	}
}
