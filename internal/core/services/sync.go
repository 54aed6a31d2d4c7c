package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
	"github.com/backworkai/vectorsync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// SyncOrchestrator drives one sync attempt end-to-end:
// fetch, diff, gate, deploy, activate, record.
//
// It is synchronous per call and deliberately not serialized at this
// layer: the snapshot store's atomic activation swap is the sole
// serialization point. Overlapping syncs may do redundant work but can
// never leave more than one snapshot active.
type SyncOrchestrator struct {
	source    driven.ChunkSource
	snapshots driven.SnapshotStore
	history   driven.SyncHistoryStore
	deployer  *Deployer
	notifier  driven.Notifier
	settings  domain.SyncSettings
}

// NewSyncOrchestrator creates a sync orchestrator.
// The notifier is optional; when nil, notifications are skipped.
func NewSyncOrchestrator(
	source driven.ChunkSource,
	snapshots driven.SnapshotStore,
	history driven.SyncHistoryStore,
	deployer *Deployer,
	notifier driven.Notifier,
	settings domain.SyncSettings,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		source:    source,
		snapshots: snapshots,
		history:   history,
		deployer:  deployer,
		notifier:  notifier,
		settings:  settings,
	}
}

// Sync runs one fetch-diff-gate-deploy-activate attempt.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Sync(ctx context.Context, opts driving.SyncOptions) (*driving.SyncOutcome, error) {
	trigger := opts.TriggeredBy
	if trigger == "" {
		trigger = domain.TriggerManual
	}

	runID, err := o.history.RecordStart(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("%w: recording run start: %v", domain.ErrStoreUnavailable, err)
	}

	logger.Section("Sync")
	logger.Info("Sync run %d started (trigger=%s full=%t force=%t)", runID, trigger, opts.Full, opts.Force)

	// 1. Fetch the candidate chunk set.
	chunks, err := o.source.FetchChunks(ctx)
	if err != nil {
		return nil, o.fail(ctx, runID, "fetch", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err))
	}
	if len(chunks) == 0 {
		return nil, o.fail(ctx, runID, "fetch", fmt.Errorf("%w: chunk builder returned no chunks", domain.ErrFetchFailed))
	}
	logger.Info("Fetched %d chunks", len(chunks))

	// 2. Capture the snapshot. Identical content dedupes to the existing row.
	meta := map[string]any{"triggered_by": string(trigger)}
	if opts.Full {
		meta["full_rebuild"] = true
	}
	result, err := o.snapshots.SaveSnapshot(ctx, chunks, meta)
	if err != nil {
		return nil, o.fail(ctx, runID, "save snapshot", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
	}

	if result.Status == domain.SaveStatusUnchanged && !opts.Full {
		if err := o.history.RecordSuccess(ctx, runID, result.SnapshotID, domain.ChangeSet{}); err != nil {
			return nil, fmt.Errorf("%w: recording run success: %v", domain.ErrStoreUnavailable, err)
		}
		o.notify(ctx, fmt.Sprintf("Sync complete: no changes (snapshot %s)", result.SnapshotID), driven.SeverityInfo)
		logger.Info("Content unchanged from snapshot %s, nothing to deploy", result.SnapshotID)
		return &driving.SyncOutcome{
			Status:     driving.OutcomeUnchanged,
			SnapshotID: result.SnapshotID,
			Message:    "content unchanged from existing snapshot",
		}, nil
	}

	// 3. Gate on the proportion of changed chunks.
	oldCount := 0
	active, err := o.snapshots.GetActiveSnapshot(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, o.fail(ctx, runID, "load active snapshot", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
	}
	if active != nil {
		oldCount = active.ChunkCount
	}

	decision := domain.EvaluateSafetyGate(oldCount, result.Changes, o.settings.SafetyThresholdPercent, opts.Force)
	if !decision.Proceed {
		if err := o.history.RecordPaused(ctx, runID, decision.Reason); err != nil {
			return nil, fmt.Errorf("%w: recording run pause: %v", domain.ErrStoreUnavailable, err)
		}
		o.notify(ctx, fmt.Sprintf("Sync paused: %s. Snapshot %s is preserved; approve it to deploy.", decision.Reason, result.SnapshotID), driven.SeverityWarning)
		logger.Warn("Sync run %d paused: %s", runID, decision.Reason)
		return &driving.SyncOutcome{
			Status:     driving.OutcomePaused,
			SnapshotID: result.SnapshotID,
			Changes:    result.Changes,
			Message:    decision.Reason,
		}, nil
	}

	// 4. Deploy the full chunk set, then activate. A deploy failure leaves
	// the snapshot persisted but inactive, so it can be approved later
	// without re-fetching.
	if err := o.deployer.Deploy(ctx, chunks); err != nil {
		return nil, o.fail(ctx, runID, "deploy", fmt.Errorf("%w: %v", domain.ErrDeployFailed, err))
	}

	if err := o.snapshots.ActivateSnapshot(ctx, result.SnapshotID); err != nil {
		return nil, o.fail(ctx, runID, "activate", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
	}

	if err := o.history.RecordSuccess(ctx, runID, result.SnapshotID, result.Changes); err != nil {
		return nil, fmt.Errorf("%w: recording run success: %v", domain.ErrStoreUnavailable, err)
	}

	msg := fmt.Sprintf("Sync complete: snapshot %s activated (%d added, %d updated, %d removed)",
		result.SnapshotID, result.Changes.Added, result.Changes.Updated, result.Changes.Removed)
	if result.Changes.IsZero() {
		msg = fmt.Sprintf("Sync complete: snapshot %s redeployed, no content changes", result.SnapshotID)
	}
	o.notify(ctx, msg, driven.SeverityInfo)
	logger.Info("Sync run %d succeeded: %s", runID, msg)

	return &driving.SyncOutcome{
		Status:     driving.OutcomeSuccess,
		SnapshotID: result.SnapshotID,
		Changes:    result.Changes,
		Message:    msg,
	}, nil
}

// Rollback redeploys a past snapshot's stored chunks and activates it.
// Fetch and diff are skipped entirely: the point of rollback is to avoid
// trusting the current source state.
func (o *SyncOrchestrator) Rollback(ctx context.Context, snapshotID string) (*driving.SyncOutcome, error) {
	return o.redeploy(ctx, snapshotID, domain.TriggerRollback)
}

// Approve deploys and activates a snapshot left inactive by a safety
// gate pause.
func (o *SyncOrchestrator) Approve(ctx context.Context, snapshotID string) (*driving.SyncOutcome, error) {
	return o.redeploy(ctx, snapshotID, domain.TriggerApprove)
}

// redeploy re-enters the pipeline at the deploy step with a stored
// snapshot's chunks, verbatim.
func (o *SyncOrchestrator) redeploy(ctx context.Context, snapshotID string, trigger domain.Trigger) (*driving.SyncOutcome, error) {
	snap, err := o.snapshots.GetSnapshot(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: snapshot %s", domain.ErrNotFound, snapshotID)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if snap.IsActive {
		logger.Info("Snapshot %s is already active, nothing to do", snapshotID)
		return &driving.SyncOutcome{
			Status:     driving.OutcomeNoChange,
			SnapshotID: snapshotID,
			Message:    "snapshot is already active",
		}, nil
	}

	runID, err := o.history.RecordStart(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("%w: recording run start: %v", domain.ErrStoreUnavailable, err)
	}

	logger.Section(string(trigger))
	logger.Info("Run %d: redeploying snapshot %s (%d chunks)", runID, snapshotID, snap.ChunkCount)

	if err := o.deployer.Deploy(ctx, snap.Chunks); err != nil {
		return nil, o.fail(ctx, runID, "deploy", fmt.Errorf("%w: %v", domain.ErrDeployFailed, err))
	}

	if err := o.snapshots.ActivateSnapshot(ctx, snapshotID); err != nil {
		return nil, o.fail(ctx, runID, "activate", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
	}

	if err := o.history.RecordSuccess(ctx, runID, snapshotID, domain.ChangeSet{}); err != nil {
		return nil, fmt.Errorf("%w: recording run success: %v", domain.ErrStoreUnavailable, err)
	}

	msg := fmt.Sprintf("%s complete: snapshot %s activated (%d chunks)", trigger, snapshotID, snap.ChunkCount)
	o.notify(ctx, msg, driven.SeverityInfo)

	return &driving.SyncOutcome{
		Status:     driving.OutcomeSuccess,
		SnapshotID: snapshotID,
		Message:    msg,
	}, nil
}

// Status reports the active snapshot and most recent run.
func (o *SyncOrchestrator) Status(ctx context.Context) (*driving.SyncStatus, error) {
	status := &driving.SyncStatus{}

	active, err := o.snapshots.GetActiveSnapshot(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if active != nil {
		status.ActiveSnapshotID = active.SnapshotID
		status.ChunkCount = active.ChunkCount
		status.LastDeployedAt = active.DeployedAt
	}

	runs, err := o.history.List(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(runs) > 0 {
		status.LastRun = &runs[0]
	}

	return status, nil
}

// fail records the terminal failure in the ledger before surfacing it,
// so operational visibility never depends on the caller handling the
// error. The returned error carries the run ID and stage for correlation.
func (o *SyncOrchestrator) fail(ctx context.Context, runID int64, stage string, err error) error {
	if recErr := o.history.RecordFailure(ctx, runID, err.Error()); recErr != nil {
		logger.Warn("Failed to record failure for run %d: %v", runID, recErr)
	}
	o.notify(ctx, fmt.Sprintf("Sync run %d failed during %s: %v", runID, stage, err), driven.SeverityError)
	return fmt.Errorf("sync run %d: %s: %w", runID, stage, err)
}

// notify delivers a best-effort notification. Failures are logged and
// swallowed; they never fail a sync.
func (o *SyncOrchestrator) notify(ctx context.Context, message string, severity driven.Severity) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, message, severity); err != nil {
		logger.Warn("Notification failed: %v", err)
	}
}
