package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// syncHistoryStore implements driven.SyncHistoryStore.
type syncHistoryStore struct {
	store *Store
}

var _ driven.SyncHistoryStore = (*syncHistoryStore)(nil)

// RecordStart opens a run in running status and returns its row ID.
func (s *syncHistoryStore) RecordStart(ctx context.Context, triggeredBy domain.Trigger) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_history (started_at, status, triggered_by)
		VALUES (?, ?, ?)
	`, time.Now().UTC().Format(time.RFC3339), string(domain.RunStatusRunning), string(triggeredBy))
	if err != nil {
		return 0, fmt.Errorf("recording sync start: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting run ID: %w", err)
	}
	return runID, nil
}

// RecordSuccess marks a run successful with its change counts.
func (s *syncHistoryStore) RecordSuccess(ctx context.Context, runID int64, snapshotID string, changes domain.ChangeSet) error {
	return s.complete(ctx, runID, `
		UPDATE sync_history
		SET completed_at = ?, status = ?, snapshot_id = ?,
			chunks_added = ?, chunks_updated = ?, chunks_removed = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), string(domain.RunStatusSuccess),
		nullString(snapshotID), changes.Added, changes.Updated, changes.Removed, runID)
}

// RecordFailure marks a run failed with the error message.
func (s *syncHistoryStore) RecordFailure(ctx context.Context, runID int64, errorMessage string) error {
	return s.complete(ctx, runID, `
		UPDATE sync_history
		SET completed_at = ?, status = ?, error_message = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), string(domain.RunStatusFailed),
		nullString(errorMessage), runID)
}

// RecordPaused marks a run paused by the safety gate with the reason.
func (s *syncHistoryStore) RecordPaused(ctx context.Context, runID int64, reason string) error {
	return s.complete(ctx, runID, `
		UPDATE sync_history
		SET completed_at = ?, status = ?, error_message = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), string(domain.RunStatusPaused),
		nullString(reason), runID)
}

// List returns up to limit runs, newest first.
func (s *syncHistoryStore) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, status, snapshot_id,
			chunks_added, chunks_updated, chunks_removed, error_message, triggered_by
		FROM sync_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync history: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.SyncRun
		var startedAt, status, triggeredBy string
		var completedAt, snapshotID, errorMessage sql.NullString

		if err := rows.Scan(&run.ID, &startedAt, &completedAt, &status, &snapshotID,
			&run.Changes.Added, &run.Changes.Updated, &run.Changes.Removed,
			&errorMessage, &triggeredBy); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = t
		}
		run.CompletedAt = parseNullableTime(completedAt)
		run.Status = domain.RunStatus(status)
		run.SnapshotID = snapshotID.String
		run.ErrorMessage = errorMessage.String
		run.TriggeredBy = domain.Trigger(triggeredBy)

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync history: %w", err)
	}

	return runs, nil
}

// complete applies a terminal-state update and verifies the run exists.
func (s *syncHistoryStore) complete(ctx context.Context, runID int64, query string, args ...any) error {
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating sync run %d: %w", runID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking sync run update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
