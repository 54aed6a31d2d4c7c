package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backworkai/vectorsync/internal/adapters/driven/storage/memory"
	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

// stubSyncService implements driving.SyncService with canned responses.
type stubSyncService struct {
	outcome  *driving.SyncOutcome
	status   *driving.SyncStatus
	err      error
	lastOpts driving.SyncOptions
	lastID   string
}

func (s *stubSyncService) Sync(_ context.Context, opts driving.SyncOptions) (*driving.SyncOutcome, error) {
	s.lastOpts = opts
	return s.outcome, s.err
}

func (s *stubSyncService) Rollback(_ context.Context, snapshotID string) (*driving.SyncOutcome, error) {
	s.lastID = snapshotID
	return s.outcome, s.err
}

func (s *stubSyncService) Approve(_ context.Context, snapshotID string) (*driving.SyncOutcome, error) {
	s.lastID = snapshotID
	return s.outcome, s.err
}

func (s *stubSyncService) Status(_ context.Context) (*driving.SyncStatus, error) {
	return s.status, s.err
}

func TestNewServerRequiresSyncService(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingSyncService)
}

func TestHandleTriggerSync(t *testing.T) {
	stub := &stubSyncService{
		outcome: &driving.SyncOutcome{
			Status:     driving.OutcomeSuccess,
			SnapshotID: "snap_20260828_120000_abcd1234",
			Changes:    domain.ChangeSet{Added: 5, Updated: 2},
		},
	}
	server, err := NewServer(&Ports{Sync: stub})
	require.NoError(t, err)

	_, output, err := server.handleTriggerSync(context.Background(), nil, TriggerSyncInput{Force: true})
	require.NoError(t, err)

	assert.True(t, stub.lastOpts.Force)
	assert.Equal(t, domain.TriggerAPI, stub.lastOpts.TriggeredBy)
	assert.Equal(t, driving.OutcomeSuccess, output.Status)
	assert.Equal(t, "snap_20260828_120000_abcd1234", output.SnapshotID)
	assert.Equal(t, 5, output.Added)
	assert.Equal(t, 2, output.Updated)
}

func TestHandleSyncStatus(t *testing.T) {
	deployed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	stub := &stubSyncService{
		status: &driving.SyncStatus{
			ActiveSnapshotID: "snap_x",
			ChunkCount:       42,
			LastDeployedAt:   deployed,
			LastRun: &domain.SyncRun{
				ID:          7,
				Status:      domain.RunStatusSuccess,
				TriggeredBy: domain.TriggerCron,
			},
		},
	}
	server, err := NewServer(&Ports{Sync: stub})
	require.NoError(t, err)

	_, output, err := server.handleSyncStatus(context.Background(), nil, struct{}{})
	require.NoError(t, err)

	assert.Equal(t, "snap_x", output.ActiveSnapshotID)
	assert.Equal(t, 42, output.ChunkCount)
	assert.Equal(t, "2026-08-28T12:00:00Z", output.LastDeployedAt)
	require.NotNil(t, output.LastRun)
	assert.Equal(t, int64(7), output.LastRun.ID)
	assert.Equal(t, "cron", output.LastRun.TriggeredBy)
}

func TestHandleRollbackAndApprove(t *testing.T) {
	stub := &stubSyncService{
		outcome: &driving.SyncOutcome{Status: driving.OutcomeNoChange, SnapshotID: "snap_y"},
	}
	server, err := NewServer(&Ports{Sync: stub})
	require.NoError(t, err)

	_, output, err := server.handleRollback(context.Background(), nil, SnapshotIDInput{SnapshotID: "snap_y"})
	require.NoError(t, err)
	assert.Equal(t, "snap_y", stub.lastID)
	assert.Equal(t, driving.OutcomeNoChange, output.Status)

	_, _, err = server.handleApprove(context.Background(), nil, SnapshotIDInput{SnapshotID: "snap_z"})
	require.NoError(t, err)
	assert.Equal(t, "snap_z", stub.lastID)
}

func TestHandleListSnapshots(t *testing.T) {
	ctx := context.Background()
	snapshots := memory.NewSnapshotStore()

	chunks := []domain.Chunk{{ID: "a", Text: "x", Metadata: map[string]any{}}}
	saved, err := snapshots.SaveSnapshot(ctx, chunks, nil)
	require.NoError(t, err)
	require.NoError(t, snapshots.ActivateSnapshot(ctx, saved.SnapshotID))

	server, err := NewServer(&Ports{Sync: &stubSyncService{}, Snapshots: snapshots})
	require.NoError(t, err)

	_, output, err := server.handleListSnapshots(ctx, nil, ListLimitInput{})
	require.NoError(t, err)

	require.Equal(t, 1, output.Count)
	assert.Equal(t, saved.SnapshotID, output.Snapshots[0].SnapshotID)
	assert.True(t, output.Snapshots[0].IsActive)
	assert.NotEmpty(t, output.Snapshots[0].DeployedAt)
}

func TestHandleSyncHistory(t *testing.T) {
	ctx := context.Background()
	history := memory.NewSyncHistoryStore()

	runID, err := history.RecordStart(ctx, domain.TriggerManual)
	require.NoError(t, err)
	require.NoError(t, history.RecordPaused(ctx, runID, "60.0% of chunks changed"))

	server, err := NewServer(&Ports{Sync: &stubSyncService{}, History: history})
	require.NoError(t, err)

	_, output, err := server.handleSyncHistory(ctx, nil, ListLimitInput{Limit: 5})
	require.NoError(t, err)

	require.Equal(t, 1, output.Count)
	assert.Equal(t, "paused", output.Runs[0].Status)
	assert.Contains(t, output.Runs[0].Error, "60.0%")
}
