// Package mcp exposes the sync engine to AI assistants over the Model
// Context Protocol.
package mcp

import (
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sync drives sync, rollback, approve and status.
	Sync driving.SyncService

	// Snapshots reads the snapshot ledger.
	Snapshots driven.SnapshotStore

	// History reads the sync run ledger.
	History driven.SyncHistoryStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	// Snapshots and History are optional; their tools are skipped when unset
	return nil
}
