package driven

import (
	"context"

	"github.com/backworkai/vectorsync/internal/core/domain"
)

// SyncHistoryStore is the append-only audit ledger of sync runs.
//
// Writes must be durable before the call returns: an operator polling
// history immediately after a failed run must see it.
type SyncHistoryStore interface {
	// RecordStart opens a run in running status and returns its ID.
	RecordStart(ctx context.Context, triggeredBy domain.Trigger) (int64, error)

	// RecordSuccess marks a run successful with its change counts.
	RecordSuccess(ctx context.Context, runID int64, snapshotID string, changes domain.ChangeSet) error

	// RecordFailure marks a run failed with the error message.
	RecordFailure(ctx context.Context, runID int64, errorMessage string) error

	// RecordPaused marks a run paused by the safety gate with the reason.
	RecordPaused(ctx context.Context, runID int64, reason string) error

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
