// Package memory provides in-memory implementations of the storage ports,
// used by tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
// It enforces the same invariants as the SQLite store: content-hash
// dedupe, append-only rows and a single active snapshot.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.Snapshot
	byHash    map[string]string
	order     []string
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]*domain.Snapshot),
		byHash:    make(map[string]string),
	}
}

// SaveSnapshot persists a new inactive snapshot, deduplicating by
// content hash.
func (s *SnapshotStore) SaveSnapshot(_ context.Context, chunks []domain.Chunk, metadata map[string]any) (*domain.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := domain.Fingerprint(chunks)
	if existingID, ok := s.byHash[hash]; ok {
		return &domain.SaveResult{
			SnapshotID: existingID,
			Status:     domain.SaveStatusUnchanged,
			ChunkCount: s.snapshots[existingID].ChunkCount,
		}, nil
	}

	var changes domain.ChangeSet
	if active := s.activeLocked(); active != nil {
		changes = domain.Diff(active.Chunks, chunks)
	} else {
		changes = domain.Diff(nil, chunks)
	}

	now := time.Now().UTC()
	snap := &domain.Snapshot{
		SnapshotID:  domain.NewSnapshotID(now),
		CreatedAt:   now,
		ChunkCount:  len(chunks),
		ContentHash: hash,
		Chunks:      append([]domain.Chunk(nil), chunks...),
		Metadata:    metadata,
	}
	s.snapshots[snap.SnapshotID] = snap
	s.byHash[hash] = snap.SnapshotID
	s.order = append(s.order, snap.SnapshotID)

	return &domain.SaveResult{
		SnapshotID: snap.SnapshotID,
		Status:     domain.SaveStatusCreated,
		ChunkCount: len(chunks),
		Changes:    changes,
	}, nil
}

// ActivateSnapshot atomically swaps the active flag to the target.
func (s *SnapshotStore) ActivateSnapshot(_ context.Context, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.snapshots[snapshotID]
	if !ok {
		return domain.ErrNotFound
	}

	if active := s.activeLocked(); active != nil {
		active.IsActive = false
	}
	target.IsActive = true
	target.DeployedAt = time.Now().UTC()
	return nil
}

// GetActiveSnapshot returns the active snapshot, or domain.ErrNotFound.
func (s *SnapshotStore) GetActiveSnapshot(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.activeLocked()
	if active == nil {
		return nil, domain.ErrNotFound
	}
	snap := *active
	return &snap, nil
}

// GetSnapshot returns a snapshot by ID, or domain.ErrNotFound.
func (s *SnapshotStore) GetSnapshot(_ context.Context, snapshotID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *snap
	return &copied, nil
}

// ListSnapshots returns up to limit snapshots, newest first, without chunks.
func (s *SnapshotStore) ListSnapshots(_ context.Context, limit int) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := append([]string(nil), s.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.snapshots[ids[i]].CreatedAt.After(s.snapshots[ids[j]].CreatedAt)
	})

	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]domain.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap := *s.snapshots[id]
		snap.Chunks = nil
		out = append(out, snap)
	}
	return out, nil
}

func (s *SnapshotStore) activeLocked() *domain.Snapshot {
	for _, snap := range s.snapshots {
		if snap.IsActive {
			return snap
		}
	}
	return nil
}
