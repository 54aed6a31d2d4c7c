package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, versioned record of a complete chunk set.
// Once created only the activation fields (IsActive, DeployedAt) change,
// and only through the store's atomic activation swap. Snapshots are never
// deleted; they form the append-only audit trail that makes rollback safe.
type Snapshot struct {
	// SnapshotID is the unique identifier (time-derived plus random suffix).
	SnapshotID string

	// CreatedAt is when the snapshot row was persisted.
	CreatedAt time.Time

	// ChunkCount is the number of chunks captured.
	ChunkCount int

	// ContentHash is the fingerprint over the full sorted chunk set.
	// Two fetches with identical content share a hash and never create
	// a duplicate snapshot.
	ContentHash string

	// Chunks is the full chunk set, stored verbatim for replay/rollback.
	// Omitted in listing views to bound response size.
	Chunks []Chunk

	// Metadata records provenance, e.g. the trigger source.
	Metadata map[string]any

	// IsActive marks the single snapshot currently reflected in the
	// live vector index.
	IsActive bool

	// DeployedAt is set when the snapshot is activated. Zero until then.
	DeployedAt time.Time
}

// NewSnapshotID generates a unique snapshot identifier such as
// "snap_20260828_143015_1a2b3c4d".
func NewSnapshotID(now time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("snap_%s_%s", now.UTC().Format("20060102_150405"), suffix)
}

// SaveStatus is the outcome of a snapshot save attempt.
type SaveStatus string

const (
	// SaveStatusCreated means a new snapshot row was persisted.
	SaveStatusCreated SaveStatus = "created"

	// SaveStatusUnchanged means the content hash matched an existing
	// snapshot and no new row was created.
	SaveStatusUnchanged SaveStatus = "unchanged"
)

// SaveResult reports the outcome of SnapshotStore.SaveSnapshot.
type SaveResult struct {
	// SnapshotID is the new snapshot's ID, or the existing one when
	// Status is unchanged.
	SnapshotID string

	// Status is created or unchanged.
	Status SaveStatus

	// ChunkCount is the size of the saved chunk set.
	ChunkCount int

	// Changes is the diff against the previously active snapshot.
	// Zero when Status is unchanged or no snapshot was active.
	Changes ChangeSet
}
