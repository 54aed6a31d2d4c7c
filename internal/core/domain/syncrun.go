package domain

import "time"

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

// Run statuses. Every run starts as running and reaches exactly one
// terminal status before the invoking call returns.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusPaused  RunStatus = "paused"
)

// IsTerminal returns true for statuses a run can end in.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailed, RunStatusPaused:
		return true
	default:
		return false
	}
}

// Trigger identifies what initiated a sync run.
type Trigger string

// Recognised triggers.
const (
	TriggerManual   Trigger = "manual"
	TriggerAPI      Trigger = "api"
	TriggerRollback Trigger = "rollback"
	TriggerApprove  Trigger = "approve"
	TriggerCron     Trigger = "cron"
	TriggerWatch    Trigger = "watch"
)

// SyncRun is one append-only audit record per orchestration attempt.
type SyncRun struct {
	// ID is the ledger row identifier.
	ID int64

	// StartedAt is when the run opened.
	StartedAt time.Time

	// CompletedAt is when the run reached a terminal status.
	// Zero while running.
	CompletedAt time.Time

	// Status is running, success, failed or paused.
	Status RunStatus

	// SnapshotID is the snapshot this run produced or redeployed, if any.
	SnapshotID string

	// Changes holds the chunk change counts recorded at completion.
	Changes ChangeSet

	// ErrorMessage carries the failure or pause reason, if any.
	ErrorMessage string

	// TriggeredBy identifies what started the run.
	TriggeredBy Trigger
}
