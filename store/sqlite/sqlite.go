/*
Package sqlite provides SQLite-backed persistence for the planner.

PURPOSE:
  Caches the indicator snapshots fetched from the central bank so the API can
  keep answering when the upstream service is down, and records an audit row
  for every refresh attempt.

KEY TABLES:
  indicator_snapshots: One row per distinct (selic, ipca, reference dates)
                       combination. Re-fetching the same published values only
                       bumps fetched_at.
  refresh_runs:        Refresh attempts with status and error text.

VALUES:
  Rates are stored as TEXT in their published percent form ("10.50") and
  read back as decimal.Decimal, so no float rounding creeps into the cache.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, as writes come from both the
  scheduler goroutine and HTTP handlers.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the refresh writer.

USAGE:
  store, err := sqlite.New("./data/planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - indicators/service.go: Reads and writes snapshots
  - api/scheduler.go: Records refresh runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Refresh run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// timestampLayout is fixed-width so that TEXT ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists indicator snapshots and refresh runs.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS indicator_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		selic TEXT NOT NULL,
		ipca TEXT NOT NULL,
		selic_reference_date TEXT NOT NULL,
		ipca_reference_date TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		UNIQUE(selic, ipca, selic_reference_date, ipca_reference_date)
	);

	CREATE INDEX IF NOT EXISTS idx_indicator_snapshots_fetched_at
		ON indicator_snapshots(fetched_at DESC);

	CREATE TABLE IF NOT EXISTS refresh_runs (
		id TEXT PRIMARY KEY,
		trigger_source TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		snapshot_id INTEGER,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_refresh_runs_started_at
		ON refresh_runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_refresh_runs_status
		ON refresh_runs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INDICATOR SNAPSHOTS
// =============================================================================

// SnapshotRecord is a cached pair of indicator observations.
type SnapshotRecord struct {
	ID                 int64
	Selic              decimal.Decimal // Percent per year
	IPCA               decimal.Decimal // Percent, 12-month accumulated
	SelicReferenceDate time.Time
	IPCAReferenceDate  time.Time
	FetchedAt          time.Time
}

// SaveSnapshot stores a snapshot. When the same published values are already
// cached, only fetched_at is updated. Returns the row ID.
func (s *Store) SaveSnapshot(ctx context.Context, snap SnapshotRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO indicator_snapshots (selic, ipca, selic_reference_date, ipca_reference_date, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(selic, ipca, selic_reference_date, ipca_reference_date) DO UPDATE SET
			fetched_at = excluded.fetched_at
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		snap.Selic.String(), snap.IPCA.String(),
		snap.SelicReferenceDate.Format(time.DateOnly), snap.IPCAReferenceDate.Format(time.DateOnly),
		snap.FetchedAt.UTC().Format(timestampLayout),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recently fetched snapshot, or nil if the
// cache is empty.
func (s *Store) LatestSnapshot(ctx context.Context) (*SnapshotRecord, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// ListSnapshots returns cached snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, selic, ipca, selic_reference_date, ipca_reference_date, fetched_at
		FROM indicator_snapshots
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []SnapshotRecord
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func scanSnapshot(rows *sql.Rows) (SnapshotRecord, error) {
	var snap SnapshotRecord
	var selic, ipca, selicDate, ipcaDate, fetchedAt string

	if err := rows.Scan(&snap.ID, &selic, &ipca, &selicDate, &ipcaDate, &fetchedAt); err != nil {
		return snap, err
	}

	var err error
	if snap.Selic, err = decimal.NewFromString(selic); err != nil {
		return snap, fmt.Errorf("snapshot %d: invalid selic %q: %w", snap.ID, selic, err)
	}
	if snap.IPCA, err = decimal.NewFromString(ipca); err != nil {
		return snap, fmt.Errorf("snapshot %d: invalid ipca %q: %w", snap.ID, ipca, err)
	}
	snap.SelicReferenceDate, _ = time.Parse(time.DateOnly, selicDate)
	snap.IPCAReferenceDate, _ = time.Parse(time.DateOnly, ipcaDate)
	snap.FetchedAt, _ = time.Parse(timestampLayout, fetchedAt)

	return snap, nil
}

// =============================================================================
// REFRESH RUNS
// =============================================================================

// RefreshRun records one attempt to refresh the indicator cache.
type RefreshRun struct {
	ID          string
	Trigger     string // startup, scheduled, manual
	Status      string // running, completed, failed
	SnapshotID  *int64
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveRefreshRun inserts or updates a refresh run.
func (s *Store) SaveRefreshRun(ctx context.Context, r RefreshRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO refresh_runs (id, trigger_source, status, snapshot_id, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			snapshot_id = excluded.snapshot_id,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		s := r.CompletedAt.UTC().Format(timestampLayout)
		completedAt = &s
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Trigger, r.Status, r.SnapshotID, nullString(r.Error),
		r.StartedAt.UTC().Format(timestampLayout), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh run %s: %w", r.ID, err)
	}
	return nil
}

// GetRefreshRun returns a refresh run by ID, or nil if not found.
func (s *Store) GetRefreshRun(ctx context.Context, id string) (*RefreshRun, error) {
	runs, err := s.queryRefreshRuns(ctx, `
		SELECT id, trigger_source, status, snapshot_id, error, started_at, completed_at
		FROM refresh_runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRefreshRuns returns refresh runs, newest first, optionally filtered by status.
func (s *Store) ListRefreshRuns(ctx context.Context, status string, limit int) ([]RefreshRun, error) {
	if limit <= 0 {
		limit = 100
	}

	if status != "" {
		return s.queryRefreshRuns(ctx, `
			SELECT id, trigger_source, status, snapshot_id, error, started_at, completed_at
			FROM refresh_runs
			WHERE status = ?
			ORDER BY started_at DESC
			LIMIT ?
		`, status, limit)
	}
	return s.queryRefreshRuns(ctx, `
		SELECT id, trigger_source, status, snapshot_id, error, started_at, completed_at
		FROM refresh_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
}

func (s *Store) queryRefreshRuns(ctx context.Context, query string, args ...any) ([]RefreshRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var r RefreshRun
		var snapshotID sql.NullInt64
		var errText, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Status, &snapshotID, &errText, &startedAt, &completedAt); err != nil {
			return nil, err
		}

		if snapshotID.Valid {
			id := snapshotID.Int64
			r.SnapshotID = &id
		}
		r.Error = errText.String
		r.StartedAt, _ = time.Parse(timestampLayout, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(timestampLayout, completedAt.String)
			r.CompletedAt = &t
		}

		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Reset deletes all cached snapshots and refresh runs.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"refresh_runs", "indicator_snapshots"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Join(errors.New("database unavailable"), err)
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
