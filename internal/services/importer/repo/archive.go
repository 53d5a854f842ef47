// Package repo provides the importer's Postgres archive
package repo

import (
	"context"
	"encoding/json"

	"forgeport/internal/eventlog"
	"forgeport/internal/modkit/repokit"
	perrs "forgeport/internal/platform/errors"
	"forgeport/internal/platform/store"
	"forgeport/internal/services/importer/domain"
)

// Archive records import runs and the events they published. The archive is
// an audit trail only; the event log itself is the source of truth
type Archive interface {
	InsertRun(ctx context.Context, runID, repo string, cfg domain.Config) error
	FinishRun(ctx context.Context, runID, status string, runErr error, issues, pulls, comments, failed int) error
	RecordEvent(ctx context.Context, runID string, ev *eventlog.Event, pubErr error) error
}

type (
	// PG is a Postgres archive repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres archive repository
func NewPG() repokit.Binder[Archive] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Archive
func (PG) Bind(q repokit.Queryer) Archive { return &queries{q: q} }

// InsertRun opens the audit record for a run
func (r *queries) InsertRun(ctx context.Context, runID, repo string, cfg domain.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	const sql = `
		INSERT INTO import_runs (run_id, repo, config, status, started_at)
		VALUES ($1, $2, $3, 'running', NOW())
		ON CONFLICT (run_id) DO NOTHING
	`
	_, err = r.q.Exec(store.WithRun(ctx, runID), sql, runID, repo, raw)
	return perrs.FromPostgresf(err, "insert run %s", runID)
}

// FinishRun closes the audit record with final counters
func (r *queries) FinishRun(
	ctx context.Context, runID, status string, runErr error,
	issues, pulls, comments, failed int,
) error {
	var lastErr string
	if runErr != nil {
		lastErr = runErr.Error()
	}
	const sql = `
		UPDATE import_runs
		SET status = $2,
		    last_error = NULLIF(LEFT($3, 500), ''),
		    issues = $4, pulls = $5, comments = $6, failed_events = $7,
		    finished_at = NOW()
		WHERE run_id = $1
	`
	_, err := r.q.Exec(store.WithRun(ctx, runID), sql, runID, status, lastErr, issues, pulls, comments, failed)
	return perrs.FromPostgresf(err, "finish run %s", runID)
}

// RecordEvent stores one published (or failed) event for the run
func (r *queries) RecordEvent(ctx context.Context, runID string, ev *eventlog.Event, pubErr error) error {
	var lastErr string
	if pubErr != nil {
		lastErr = pubErr.Error()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	const sql = `
		INSERT INTO import_events (run_id, event_id, pubkey, kind, payload, publish_error, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF(LEFT($6, 500), ''), NOW())
		ON CONFLICT (event_id) DO NOTHING
	`
	_, err = r.q.Exec(store.WithRun(ctx, runID), sql, runID, ev.ID, ev.Pubkey, ev.Kind, raw, lastErr)
	return perrs.FromPostgresf(err, "record event %s", ev.ID)
}
