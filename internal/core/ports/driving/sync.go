package driving

import (
	"context"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
)

// Outcome statuses reported to callers. These describe what a call did,
// which is broader than the run status recorded in the ledger: a sync that
// found nothing to do reports unchanged, and a rollback to the already
// active snapshot reports no_change without creating any run at all.
const (
	OutcomeSuccess   = "success"
	OutcomeUnchanged = "unchanged"
	OutcomePaused    = "paused"
	OutcomeNoChange  = "no_change"
)

// SyncOptions controls one sync attempt.
type SyncOptions struct {
	// Full redeploys the entire chunk set even when the content hash
	// matches the active snapshot (full rebuild).
	Full bool

	// Force bypasses the safety gate.
	Force bool

	// TriggeredBy identifies the initiator; defaults to manual.
	TriggeredBy domain.Trigger
}

// SyncOutcome is the structured result of a sync, rollback or approve call.
type SyncOutcome struct {
	// Status is one of the Outcome constants.
	Status string

	// SnapshotID is the snapshot produced or redeployed, if any.
	SnapshotID string

	// Changes holds the chunk change counts for the attempt.
	Changes domain.ChangeSet

	// Message is a human-readable summary.
	Message string
}

// SyncStatus is the operator-facing status surface.
type SyncStatus struct {
	// ActiveSnapshotID is the currently active snapshot, if any.
	ActiveSnapshotID string

	// ChunkCount is the active snapshot's chunk count.
	ChunkCount int

	// LastDeployedAt is when the active snapshot was activated.
	LastDeployedAt time.Time

	// LastRun is the most recent sync run, if any.
	LastRun *domain.SyncRun
}

// SyncService drives the versioned snapshot sync engine.
//
// All calls are synchronous: they return only once the run has reached a
// terminal status, so schedulers and cron triggers can rely on the return
// value to know the outcome immediately.
type SyncService interface {
	// Sync runs one fetch-diff-gate-deploy-activate attempt.
	// A paused outcome is returned without error; failures return both
	// the outcome context in the ledger and the error to the caller.
	Sync(ctx context.Context, opts SyncOptions) (*SyncOutcome, error)

	// Rollback redeploys a past snapshot's stored chunks verbatim and
	// activates it, skipping fetch and diff entirely. Rolling back to the
	// active snapshot reports no_change.
	Rollback(ctx context.Context, snapshotID string) (*SyncOutcome, error)

	// Approve deploys and activates a snapshot previously left inactive
	// by a safety gate pause. Mechanically identical to Rollback.
	Approve(ctx context.Context, snapshotID string) (*SyncOutcome, error)

	// Status reports the active snapshot and most recent run.
	Status(ctx context.Context) (*SyncStatus, error)
}
