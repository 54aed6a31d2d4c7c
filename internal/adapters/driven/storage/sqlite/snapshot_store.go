package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// snapshotStore implements driven.SnapshotStore.
//
// Snapshot rows are append-only: nothing ever deletes or rewrites a
// persisted chunk set. Only the activation columns change, inside a
// single transaction, so at most one row carries is_active at any time.
type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// SaveSnapshot fingerprints the chunk set and persists a new inactive
// snapshot. A content hash collision with an existing row means the set
// is byte-identical; no new row is created and the existing ID is
// returned with status unchanged.
func (s *snapshotStore) SaveSnapshot(ctx context.Context, chunks []domain.Chunk, metadata map[string]any) (*domain.SaveResult, error) {
	hash := domain.Fingerprint(chunks)

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Dedupe by content hash.
	var existingID string
	var existingCount int
	err = tx.QueryRowContext(ctx, `
		SELECT snapshot_id, chunk_count FROM vector_snapshots WHERE content_hash = ?
	`, hash).Scan(&existingID, &existingCount)
	switch {
	case err == nil:
		return &domain.SaveResult{
			SnapshotID: existingID,
			Status:     domain.SaveStatusUnchanged,
			ChunkCount: existingCount,
		}, nil
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("checking content hash: %w", err)
	}

	// Diff against the active snapshot's chunks, if any.
	var changes domain.ChangeSet
	var activeChunksJSON sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT chunks FROM vector_snapshots WHERE is_active = 1
	`).Scan(&activeChunksJSON)
	switch {
	case err == nil && activeChunksJSON.Valid:
		var activeChunks []domain.Chunk
		if uerr := json.Unmarshal([]byte(activeChunksJSON.String), &activeChunks); uerr != nil {
			return nil, fmt.Errorf("unmarshaling active chunks: %w", uerr)
		}
		changes = domain.Diff(activeChunks, chunks)
	case err == sql.ErrNoRows:
		changes = domain.Diff(nil, chunks)
	case err != nil:
		return nil, fmt.Errorf("loading active snapshot: %w", err)
	}

	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return nil, fmt.Errorf("marshalling chunks: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	snapshotID := domain.NewSnapshotID(now)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vector_snapshots
			(snapshot_id, created_at, chunk_count, content_hash, chunks, metadata, is_active)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, snapshotID, now.Format(time.RFC3339), len(chunks), hash,
		string(chunksJSON), string(metadataJSON))
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return &domain.SaveResult{
		SnapshotID: snapshotID,
		Status:     domain.SaveStatusCreated,
		ChunkCount: len(chunks),
		Changes:    changes,
	}, nil
}

// ActivateSnapshot atomically swaps the active flag to the target and
// stamps its deployment time. The target is flagged first so a missing
// ID rolls back without disturbing the currently active snapshot.
func (s *snapshotStore) ActivateSnapshot(ctx context.Context, snapshotID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE vector_snapshots
		SET is_active = 1, deployed_at = ?
		WHERE snapshot_id = ?
	`, time.Now().UTC().Format(time.RFC3339), snapshotID)
	if err != nil {
		return fmt.Errorf("activating snapshot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking activation: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE vector_snapshots
		SET is_active = 0
		WHERE is_active = 1 AND snapshot_id != ?
	`, snapshotID); err != nil {
		return fmt.Errorf("deactivating previous snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetActiveSnapshot returns the active snapshot with its full chunk set.
func (s *snapshotStore) GetActiveSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT snapshot_id, created_at, chunk_count, content_hash, chunks, metadata, is_active, deployed_at
		FROM vector_snapshots WHERE is_active = 1
	`)
	return scanSnapshot(row)
}

// GetSnapshot returns a snapshot by ID with its full chunk set.
func (s *snapshotStore) GetSnapshot(ctx context.Context, snapshotID string) (*domain.Snapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT snapshot_id, created_at, chunk_count, content_hash, chunks, metadata, is_active, deployed_at
		FROM vector_snapshots WHERE snapshot_id = ?
	`, snapshotID)
	return scanSnapshot(row)
}

// ListSnapshots returns up to limit snapshots, newest first, without
// their chunk sets.
func (s *snapshotStore) ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT snapshot_id, created_at, chunk_count, content_hash, metadata, is_active, deployed_at
		FROM vector_snapshots
		ORDER BY created_at DESC, snapshot_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot //nolint:prealloc // size unknown from query
	for rows.Next() {
		var snap domain.Snapshot
		var createdAt string
		var metadataJSON, deployedAt sql.NullString
		var isActive int
		if err := rows.Scan(&snap.SnapshotID, &createdAt, &snap.ChunkCount,
			&snap.ContentHash, &metadataJSON, &isActive, &deployedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			snap.CreatedAt = t
		}
		if err := unmarshalSnapshotMetadata(metadataJSON, &snap); err != nil {
			return nil, err
		}
		snap.IsActive = isActive == 1
		snap.DeployedAt = parseNullableTime(deployedAt)

		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// scanSnapshot scans a full snapshot row, chunks included.
func scanSnapshot(row *sql.Row) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	var createdAt, chunksJSON string
	var metadataJSON, deployedAt sql.NullString
	var isActive int

	if err := row.Scan(&snap.SnapshotID, &createdAt, &snap.ChunkCount,
		&snap.ContentHash, &chunksJSON, &metadataJSON, &isActive, &deployedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		snap.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(chunksJSON), &snap.Chunks); err != nil {
		return nil, fmt.Errorf("unmarshaling chunks: %w", err)
	}
	if err := unmarshalSnapshotMetadata(metadataJSON, &snap); err != nil {
		return nil, err
	}
	snap.IsActive = isActive == 1
	snap.DeployedAt = parseNullableTime(deployedAt)

	return &snap, nil
}

func unmarshalSnapshotMetadata(metadataJSON sql.NullString, snap *domain.Snapshot) error {
	if !metadataJSON.Valid || metadataJSON.String == "" || metadataJSON.String == jsonNull {
		return nil
	}
	if err := json.Unmarshal([]byte(metadataJSON.String), &snap.Metadata); err != nil {
		return fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return nil
}
