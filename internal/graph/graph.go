// Package graph is the knowledge graph database the sync capabilities write to.
package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"thothsync/internal/syncer"
)

var _ syncer.Graph = (*Database)(nil)

var ErrMissingDSN = errors.New("missing graph database dsn")

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

type Database struct {
	db *sql.DB
}

// Run is the bookkeeping row of one thoth-sync invocation.
type Run struct {
	ID               string
	ComponentVersion string
	ForceSync        bool
	Graceful         bool
	DocumentClasses  []string
	Status           string
	StartedAt        time.Time
	FinishedAt       sql.NullTime
}

func Open(dsn string, maxOpenConns int) (*Database, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Database{db: db}, nil
}

// Connect verifies the connection and brings the schema up to date.
func (d *Database) Connect(ctx context.Context) error {
	if err := d.Ping(ctx); err != nil {
		return fmt.Errorf("connect to graph database: %w", err)
	}
	if err := Migrate(ctx, d.db); err != nil {
		return fmt.Errorf("migrate graph database: %w", err)
	}
	return nil
}

func (d *Database) DB() *sql.DB {
	return d.db
}

func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) IsDocumentSynced(ctx context.Context, class, documentID string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE document_class = $1 AND document_id = $2)`,
		class, documentID,
	).Scan(&exists)
	return exists, err
}

func (d *Database) SyncDocument(ctx context.Context, class, documentID string, content []byte) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO documents (document_class, document_id, content, synced_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (document_class, document_id)
		DO UPDATE SET content = EXCLUDED.content, synced_at = EXCLUDED.synced_at`,
		class, documentID, string(content),
	)
	return err
}

func (d *Database) CountDocuments(ctx context.Context, class string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE document_class = $1`, class).Scan(&n)
	return n, err
}

func (d *Database) BeginRun(ctx context.Context, run Run) error {
	classes := run.DocumentClasses
	if classes == nil {
		classes = []string{}
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, component_version, force_sync, graceful, document_classes, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.ComponentVersion, run.ForceSync, run.Graceful, classes, RunRunning,
	)
	return err
}

func (d *Database) FinishRun(ctx context.Context, runID string, status string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = $2, finished_at = now() WHERE id = $1`,
		runID, status,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *Database) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := d.db.QueryRowContext(ctx, `
		SELECT id::text, component_version, force_sync, graceful, status, started_at, finished_at
		FROM sync_runs WHERE id = $1`, runID,
	).Scan(&run.ID, &run.ComponentVersion, &run.ForceSync, &run.Graceful, &run.Status, &run.StartedAt, &run.FinishedAt)
	return run, err
}

// RecordSyncStats stores one capability report of a run.
func (d *Database) RecordSyncStats(ctx context.Context, report syncer.Report) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sync_stats (run_id, capability, processed, synced, skipped, failed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.RunID, report.Capability, report.Processed, report.Synced, report.Skipped, report.Failed, report.CompletedAt,
	)
	return err
}

func (d *Database) ListSyncStats(ctx context.Context, runID string) ([]syncer.Report, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT run_id::text, capability, processed, synced, skipped, failed, completed_at
		FROM sync_stats WHERE run_id = $1 ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []syncer.Report
	for rows.Next() {
		var r syncer.Report
		if err := rows.Scan(&r.RunID, &r.Capability, &r.Processed, &r.Synced, &r.Skipped, &r.Failed, &r.CompletedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
