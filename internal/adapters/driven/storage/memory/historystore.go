package memory

import (
	"context"
	"sync"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// Ensure SyncHistoryStore implements the interface.
var _ driven.SyncHistoryStore = (*SyncHistoryStore)(nil)

// SyncHistoryStore is an in-memory implementation of driven.SyncHistoryStore.
type SyncHistoryStore struct {
	mu     sync.RWMutex
	nextID int64
	runs   map[int64]*domain.SyncRun
}

// NewSyncHistoryStore creates a new in-memory history store.
func NewSyncHistoryStore() *SyncHistoryStore {
	return &SyncHistoryStore{runs: make(map[int64]*domain.SyncRun)}
}

// RecordStart opens a run in running status and returns its ID.
func (s *SyncHistoryStore) RecordStart(_ context.Context, triggeredBy domain.Trigger) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.runs[s.nextID] = &domain.SyncRun{
		ID:          s.nextID,
		StartedAt:   time.Now().UTC(),
		Status:      domain.RunStatusRunning,
		TriggeredBy: triggeredBy,
	}
	return s.nextID, nil
}

// RecordSuccess marks a run successful.
func (s *SyncHistoryStore) RecordSuccess(_ context.Context, runID int64, snapshotID string, changes domain.ChangeSet) error {
	return s.complete(runID, func(run *domain.SyncRun) {
		run.Status = domain.RunStatusSuccess
		run.SnapshotID = snapshotID
		run.Changes = changes
	})
}

// RecordFailure marks a run failed.
func (s *SyncHistoryStore) RecordFailure(_ context.Context, runID int64, errorMessage string) error {
	return s.complete(runID, func(run *domain.SyncRun) {
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = errorMessage
	})
}

// RecordPaused marks a run paused by the safety gate.
func (s *SyncHistoryStore) RecordPaused(_ context.Context, runID int64, reason string) error {
	return s.complete(runID, func(run *domain.SyncRun) {
		run.Status = domain.RunStatusPaused
		run.ErrorMessage = reason
	})
}

// List returns up to limit runs, newest first.
func (s *SyncHistoryStore) List(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SyncRun, 0, len(s.runs))
	for id := s.nextID; id > 0; id-- {
		if run, ok := s.runs[id]; ok {
			out = append(out, *run)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *SyncHistoryStore) complete(runID int64, apply func(*domain.SyncRun)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrNotFound
	}
	apply(run)
	run.CompletedAt = time.Now().UTC()
	return nil
}
