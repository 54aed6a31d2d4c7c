package driven

import (
	"context"

	"github.com/backworkai/vectorsync/internal/core/domain"
)

// SnapshotStore persists versioned chunk set snapshots.
//
// Snapshots are append-only and immutable after creation; only the
// activation fields change, and only through ActivateSnapshot's atomic
// swap. At most one snapshot is active at any time.
type SnapshotStore interface {
	// SaveSnapshot fingerprints the chunk set and persists a new inactive
	// snapshot. If a snapshot with the same content hash already exists,
	// no row is created and the result reports status unchanged with the
	// existing ID. Otherwise the result carries the diff against the
	// currently active snapshot's chunks.
	SaveSnapshot(ctx context.Context, chunks []domain.Chunk, metadata map[string]any) (*domain.SaveResult, error)

	// ActivateSnapshot atomically clears the active flag from whichever
	// snapshot holds it and sets it on the target, stamping DeployedAt.
	// Returns domain.ErrNotFound if the ID does not exist; in that case
	// the previously active snapshot remains active.
	ActivateSnapshot(ctx context.Context, snapshotID string) error

	// GetActiveSnapshot returns the active snapshot with its full chunk
	// set, or domain.ErrNotFound if no snapshot has ever been activated.
	GetActiveSnapshot(ctx context.Context) (*domain.Snapshot, error)

	// GetSnapshot returns a snapshot by ID with its full chunk set,
	// or domain.ErrNotFound.
	GetSnapshot(ctx context.Context, snapshotID string) (*domain.Snapshot, error)

	// ListSnapshots returns up to limit snapshots, newest first.
	// Chunks are omitted from the listing view.
	ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error)
}
