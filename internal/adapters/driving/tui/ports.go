// Package tui provides an interactive terminal dashboard for vectorsync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

// Ports aggregates the port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sync drives sync, rollback and approve operations.
	Sync driving.SyncService

	// Snapshots lists and reads stored snapshots.
	Snapshots driven.SnapshotStore

	// History reads the sync run ledger.
	History driven.SyncHistoryStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	if p.Snapshots == nil {
		return ErrMissingSnapshotStore
	}
	if p.History == nil {
		return ErrMissingHistoryStore
	}
	return nil
}
