package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

// TriggerSyncInput is the input schema for the trigger_sync tool.
type TriggerSyncInput struct {
	Full  bool `json:"full,omitempty" jsonschema:"redeploy the full chunk set even when content is unchanged"`
	Force bool `json:"force,omitempty" jsonschema:"bypass the safety gate"`
}

// SyncOutcomeOutput is the shared output schema for sync-like tools.
type SyncOutcomeOutput struct {
	Status     string `json:"status"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Added      int    `json:"chunks_added"`
	Updated    int    `json:"chunks_updated"`
	Removed    int    `json:"chunks_removed"`
	Message    string `json:"message,omitempty"`
}

// SyncStatusOutput is the output schema for the sync_status tool.
type SyncStatusOutput struct {
	ActiveSnapshotID string         `json:"active_snapshot_id,omitempty"`
	ChunkCount       int            `json:"chunk_count"`
	LastDeployedAt   string         `json:"last_deployed_at,omitempty"`
	LastRun          *SyncRunOutput `json:"last_run,omitempty"`
}

// SnapshotIDInput is the input schema for rollback and approve tools.
type SnapshotIDInput struct {
	SnapshotID string `json:"snapshot_id" jsonschema:"the snapshot ID to deploy and activate"`
}

// ListLimitInput is the input schema for listing tools.
type ListLimitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default 20)"`
}

// SnapshotOutput represents a snapshot in listing output.
type SnapshotOutput struct {
	SnapshotID string `json:"snapshot_id"`
	CreatedAt  string `json:"created_at"`
	ChunkCount int    `json:"chunk_count"`
	IsActive   bool   `json:"is_active"`
	DeployedAt string `json:"deployed_at,omitempty"`
}

// ListSnapshotsOutput is the output schema for the list_snapshots tool.
type ListSnapshotsOutput struct {
	Snapshots []SnapshotOutput `json:"snapshots"`
	Count     int              `json:"count"`
}

// SyncRunOutput represents one sync run in history output.
type SyncRunOutput struct {
	ID          int64  `json:"id"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Status      string `json:"status"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	Added       int    `json:"chunks_added"`
	Updated     int    `json:"chunks_updated"`
	Removed     int    `json:"chunks_removed"`
	Error       string `json:"error,omitempty"`
	TriggeredBy string `json:"triggered_by"`
}

// SyncHistoryOutput is the output schema for the sync_history tool.
type SyncHistoryOutput struct {
	Runs  []SyncRunOutput `json:"runs"`
	Count int             `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trigger_sync",
		Description: "Run a vector sync: fetch chunks, diff against the active snapshot, deploy and activate",
	}, s.handleTriggerSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report the active snapshot and the most recent sync run",
	}, s.handleSyncStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rollback_snapshot",
		Description: "Redeploy a past snapshot's stored chunks and make it active",
	}, s.handleRollback)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "approve_snapshot",
		Description: "Deploy and activate a snapshot that was paused by the safety gate",
	}, s.handleApprove)

	if s.ports.Snapshots != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_snapshots",
			Description: "List stored snapshots, newest first",
		}, s.handleListSnapshots)
	}

	if s.ports.History != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_history",
			Description: "List recent sync runs, newest first",
		}, s.handleSyncHistory)
	}
}

// handleTriggerSync handles the trigger_sync tool invocation.
func (s *Server) handleTriggerSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TriggerSyncInput,
) (*mcp.CallToolResult, SyncOutcomeOutput, error) {
	outcome, err := s.ports.Sync.Sync(ctx, driving.SyncOptions{
		Full:        input.Full,
		Force:       input.Force,
		TriggeredBy: domain.TriggerAPI,
	})
	if err != nil {
		return nil, SyncOutcomeOutput{}, err
	}
	return nil, outcomeOutput(outcome), nil
}

// handleSyncStatus handles the sync_status tool invocation.
func (s *Server) handleSyncStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, SyncStatusOutput, error) {
	status, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, SyncStatusOutput{}, err
	}

	output := SyncStatusOutput{
		ActiveSnapshotID: status.ActiveSnapshotID,
		ChunkCount:       status.ChunkCount,
		LastDeployedAt:   formatTime(status.LastDeployedAt),
	}
	if status.LastRun != nil {
		run := runOutput(*status.LastRun)
		output.LastRun = &run
	}
	return nil, output, nil
}

// handleRollback handles the rollback_snapshot tool invocation.
func (s *Server) handleRollback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SnapshotIDInput,
) (*mcp.CallToolResult, SyncOutcomeOutput, error) {
	outcome, err := s.ports.Sync.Rollback(ctx, input.SnapshotID)
	if err != nil {
		return nil, SyncOutcomeOutput{}, err
	}
	return nil, outcomeOutput(outcome), nil
}

// handleApprove handles the approve_snapshot tool invocation.
func (s *Server) handleApprove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SnapshotIDInput,
) (*mcp.CallToolResult, SyncOutcomeOutput, error) {
	outcome, err := s.ports.Sync.Approve(ctx, input.SnapshotID)
	if err != nil {
		return nil, SyncOutcomeOutput{}, err
	}
	return nil, outcomeOutput(outcome), nil
}

// handleListSnapshots handles the list_snapshots tool invocation.
func (s *Server) handleListSnapshots(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListLimitInput,
) (*mcp.CallToolResult, ListSnapshotsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	snapshots, err := s.ports.Snapshots.ListSnapshots(ctx, limit)
	if err != nil {
		return nil, ListSnapshotsOutput{}, err
	}

	output := ListSnapshotsOutput{
		Snapshots: make([]SnapshotOutput, len(snapshots)),
		Count:     len(snapshots),
	}
	for i := range snapshots {
		output.Snapshots[i] = SnapshotOutput{
			SnapshotID: snapshots[i].SnapshotID,
			CreatedAt:  formatTime(snapshots[i].CreatedAt),
			ChunkCount: snapshots[i].ChunkCount,
			IsActive:   snapshots[i].IsActive,
			DeployedAt: formatTime(snapshots[i].DeployedAt),
		}
	}
	return nil, output, nil
}

// handleSyncHistory handles the sync_history tool invocation.
func (s *Server) handleSyncHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListLimitInput,
) (*mcp.CallToolResult, SyncHistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	runs, err := s.ports.History.List(ctx, limit)
	if err != nil {
		return nil, SyncHistoryOutput{}, err
	}

	output := SyncHistoryOutput{
		Runs:  make([]SyncRunOutput, len(runs)),
		Count: len(runs),
	}
	for i := range runs {
		output.Runs[i] = runOutput(runs[i])
	}
	return nil, output, nil
}

func outcomeOutput(outcome *driving.SyncOutcome) SyncOutcomeOutput {
	return SyncOutcomeOutput{
		Status:     outcome.Status,
		SnapshotID: outcome.SnapshotID,
		Added:      outcome.Changes.Added,
		Updated:    outcome.Changes.Updated,
		Removed:    outcome.Changes.Removed,
		Message:    outcome.Message,
	}
}

func runOutput(run domain.SyncRun) SyncRunOutput {
	return SyncRunOutput{
		ID:          run.ID,
		StartedAt:   formatTime(run.StartedAt),
		CompletedAt: formatTime(run.CompletedAt),
		Status:      string(run.Status),
		SnapshotID:  run.SnapshotID,
		Added:       run.Changes.Added,
		Updated:     run.Changes.Updated,
		Removed:     run.Changes.Removed,
		Error:       run.ErrorMessage,
		TriggeredBy: string(run.TriggeredBy),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
