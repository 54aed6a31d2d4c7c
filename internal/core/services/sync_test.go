package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backworkai/vectorsync/internal/adapters/driven/storage/memory"
	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

// --- Mock implementations for orchestrator testing ---

// mockChunkSource implements driven.ChunkSource.
type mockChunkSource struct {
	chunks []domain.Chunk
	err    error
	calls  int
}

func (m *mockChunkSource) FetchChunks(_ context.Context) ([]domain.Chunk, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	err        error
	batchCalls int
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 0.5}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return 2 }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Close() error      { return nil }

// mockIndex implements driven.VectorIndex and records upserts.
type mockIndex struct {
	mu       sync.Mutex
	err      error
	upserted map[string][]driven.Vector
}

func newMockIndex() *mockIndex {
	return &mockIndex{upserted: make(map[string][]driven.Vector)}
}

func (m *mockIndex) Upsert(_ context.Context, namespace string, vectors []driven.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserted[namespace] = append(m.upserted[namespace], vectors...)
	return nil
}

func (m *mockIndex) Stats(_ context.Context) (*driven.IndexStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &driven.IndexStats{Namespaces: make(map[string]int)}
	for ns, vecs := range m.upserted {
		stats.Namespaces[ns] = len(vecs)
		stats.TotalVectors += len(vecs)
	}
	return stats, nil
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, vecs := range m.upserted {
		n += len(vecs)
	}
	return n
}

// mockNotifier implements driven.Notifier and records messages.
type mockNotifier struct {
	mu       sync.Mutex
	err      error
	messages []string
}

func (m *mockNotifier) Notify(_ context.Context, message string, _ driven.Severity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return m.err
}

func (m *mockNotifier) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return ""
	}
	return m.messages[len(m.messages)-1]
}

// --- Test fixture ---

type fixture struct {
	source    *mockChunkSource
	snapshots *memory.SnapshotStore
	history   *memory.SyncHistoryStore
	index     *mockIndex
	notifier  *mockNotifier
	orch      *SyncOrchestrator
}

func newFixture(chunks []domain.Chunk) *fixture {
	f := &fixture{
		source:    &mockChunkSource{chunks: chunks},
		snapshots: memory.NewSnapshotStore(),
		history:   memory.NewSyncHistoryStore(),
		index:     newMockIndex(),
		notifier:  &mockNotifier{},
	}
	settings := domain.DefaultSyncSettings()
	settings.BatchesPerSecond = 0 // no pacing in tests
	deployer := NewDeployer(&mockEmbedder{}, f.index, settings)
	f.orch = NewSyncOrchestrator(f.source, f.snapshots, f.history, deployer, f.notifier, settings)
	return f
}

func makeChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:       fmt.Sprintf("chunk_%03d", i),
			Text:     fmt.Sprintf("content for chunk %d", i),
			Metadata: map[string]any{"type": "lcd_policy"},
		}
	}
	return chunks
}

// --- Tests ---

func TestSyncFirstRunSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(20))

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)
	assert.Equal(t, domain.ChangeSet{Added: 20}, outcome.Changes)
	assert.Equal(t, 20, f.index.total())

	active, err := f.snapshots.GetActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcome.SnapshotID, active.SnapshotID)

	runs, err := f.history.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, domain.TriggerManual, runs[0].TriggeredBy)
	assert.False(t, runs[0].CompletedAt.IsZero())
}

func TestSyncIdempotentWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(10))

	first, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	second, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeUnchanged, second.Status)
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.True(t, second.Changes.IsZero())

	// No duplicate snapshot row.
	snaps, err := f.snapshots.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	// No second deploy.
	assert.Equal(t, 10, f.index.total())

	// Second run still recorded as success with zero counts.
	runs, err := f.history.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)
	assert.True(t, runs[0].Changes.IsZero())
}

func TestSyncSmallChangeProceeds(t *testing.T) {
	// Active snapshot has 100 chunks; a fetch differing by 5 additions
	// and 2 updates (7% < 30%) proceeds and activates the new snapshot.
	ctx := context.Background()
	f := newFixture(makeChunks(100))

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	next := makeChunks(100)
	next[0].Text = "revised content"
	next[1].Text = "also revised"
	for i := 0; i < 5; i++ {
		next = append(next, domain.Chunk{
			ID:       fmt.Sprintf("extra_%d", i),
			Text:     "new material",
			Metadata: map[string]any{"type": "hcpcs_code"},
		})
	}
	f.source.chunks = next

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)
	assert.Equal(t, domain.ChangeSet{Added: 5, Updated: 2}, outcome.Changes)

	active, err := f.snapshots.GetActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcome.SnapshotID, active.SnapshotID)
	assert.Equal(t, 105, active.ChunkCount)
}

func TestSyncLargeChangePauses(t *testing.T) {
	// Active snapshot has 10 chunks; a fetch removing 6 (60% > 30%)
	// pauses without deploying. The snapshot is preserved inactive.
	ctx := context.Background()
	f := newFixture(makeChunks(10))

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)
	deployedBefore := f.index.total()

	f.source.chunks = makeChunks(4)

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomePaused, outcome.Status)
	assert.Contains(t, outcome.Message, "60")
	assert.Equal(t, deployedBefore, f.index.total(), "paused run must not deploy")
	assert.Contains(t, f.notifier.last(), "60")

	// The paused snapshot exists, is inactive, and is retrievable for a
	// later approve.
	snap, err := f.snapshots.GetSnapshot(ctx, outcome.SnapshotID)
	require.NoError(t, err)
	assert.False(t, snap.IsActive)
	assert.Len(t, snap.Chunks, 4)

	runs, err := f.history.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPaused, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "60")
}

func TestSyncForceBypassesGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(10))

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	f.source.chunks = makeChunks(4)

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)
	assert.Equal(t, domain.ChangeSet{Removed: 6}, outcome.Changes)
}

func TestSyncFetchErrorFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	f.source.err = errors.New("upstream unavailable")

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	runs, lerr := f.history.List(ctx, 1)
	require.NoError(t, lerr)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "upstream unavailable")
	assert.Equal(t, 0, f.index.total())
}

func TestSyncEmptyFetchFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	runs, lerr := f.history.List(ctx, 1)
	require.NoError(t, lerr)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
}

func TestSyncDeployFailureLeavesSnapshotInactive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(5))
	f.index.err = errors.New("index write refused")

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeployFailed)

	// The snapshot survives for a later approve, but nothing is active:
	// deploy-before-activate means a failed deploy never activates.
	snaps, lerr := f.snapshots.ListSnapshots(ctx, 10)
	require.NoError(t, lerr)
	require.Len(t, snaps, 1)
	assert.False(t, snaps[0].IsActive)

	_, aerr := f.snapshots.GetActiveSnapshot(ctx)
	assert.ErrorIs(t, aerr, domain.ErrNotFound)

	runs, herr := f.history.List(ctx, 1)
	require.NoError(t, herr)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
}

func TestSyncErrorCarriesRunContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	f.source.err = errors.New("boom")

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync run 1")
	assert.Contains(t, err.Error(), "fetch")
}

func TestRollbackRedeploysStoredChunks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(10))

	first, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	f.source.chunks = makeChunks(12)
	second, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)
	require.NotEqual(t, first.SnapshotID, second.SnapshotID)

	// Mutate the source to something broken; rollback must not touch it.
	f.source.err = errors.New("source is now corrupt")
	fetchesBefore := f.source.calls

	outcome, err := f.orch.Rollback(ctx, first.SnapshotID)
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)
	assert.Equal(t, fetchesBefore, f.source.calls, "rollback must not fetch")

	active, err := f.snapshots.GetActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.SnapshotID, active.SnapshotID)

	runs, err := f.history.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerRollback, runs[0].TriggeredBy)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)
}

func TestRollbackToActiveSnapshotIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(10))

	first, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	runsBefore, err := f.history.List(ctx, 100)
	require.NoError(t, err)
	deployedBefore := f.index.total()

	outcome, err := f.orch.Rollback(ctx, first.SnapshotID)
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeNoChange, outcome.Status)
	assert.Equal(t, deployedBefore, f.index.total())

	runsAfter, err := f.history.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, runsAfter, len(runsBefore), "no-op rollback creates no run")
}

func TestRollbackMissingSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(3))

	_, err := f.orch.Rollback(ctx, "snap_20990101_000000_deadbeef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprovePausedSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(10))

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	f.source.chunks = makeChunks(3)
	paused, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)
	require.Equal(t, driving.OutcomePaused, paused.Status)

	outcome, err := f.orch.Approve(ctx, paused.SnapshotID)
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)

	active, err := f.snapshots.GetActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, paused.SnapshotID, active.SnapshotID)
	assert.Equal(t, 3, active.ChunkCount)

	runs, err := f.history.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerApprove, runs[0].TriggeredBy)
}

func TestActivationExclusivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(5))

	var ids []string
	for i := 0; i < 3; i++ {
		f.source.chunks = makeChunks(5 + i)
		outcome, err := f.orch.Sync(ctx, driving.SyncOptions{Force: true})
		require.NoError(t, err)
		ids = append(ids, outcome.SnapshotID)

		snaps, err := f.snapshots.ListSnapshots(ctx, 100)
		require.NoError(t, err)
		activeCount := 0
		for _, s := range snaps {
			if s.IsActive {
				activeCount++
			}
		}
		assert.Equal(t, 1, activeCount, "exactly one active snapshot after each activation")
	}

	// Roll back through the chain; the invariant holds after each swap.
	for _, id := range ids {
		_, err := f.orch.Rollback(ctx, id)
		require.NoError(t, err)

		snaps, err := f.snapshots.ListSnapshots(ctx, 100)
		require.NoError(t, err)
		activeCount := 0
		for _, s := range snaps {
			if s.IsActive {
				activeCount++
			}
		}
		assert.Equal(t, 1, activeCount)
	}
}

func TestSyncNotifierFailureDoesNotFailSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(5))
	f.notifier.err = errors.New("webhook down")

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)
}

func TestSyncFullRedeploysUnchangedContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(8))

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)
	require.Equal(t, 8, f.index.total())

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeSuccess, outcome.Status)
	assert.Equal(t, 16, f.index.total(), "full rebuild re-pushes every chunk")

	// Still no duplicate snapshot row: dedupe by content hash holds.
	snaps, err := f.snapshots.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestStatusReportsActiveSnapshotAndLastRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(makeChunks(6))

	status, err := f.orch.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.ActiveSnapshotID)
	assert.Nil(t, status.LastRun)

	outcome, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	status, err = f.orch.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcome.SnapshotID, status.ActiveSnapshotID)
	assert.Equal(t, 6, status.ChunkCount)
	assert.False(t, status.LastDeployedAt.IsZero())
	require.NotNil(t, status.LastRun)
	assert.Equal(t, domain.RunStatusSuccess, status.LastRun.Status)
}

func TestDeployGroupsByNamespace(t *testing.T) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		{ID: "p1", Text: "policy text", Metadata: map[string]any{"type": "lcd_policy"}},
		{ID: "c1", Text: "code text", Metadata: map[string]any{"type": "hcpcs_code"}},
		{ID: "d1", Text: "doc text", Metadata: map[string]any{"type": "documentation"}},
		{ID: "u1", Text: "mystery", Metadata: map[string]any{"type": "unknown_type"}},
	}
	f := newFixture(chunks)

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	assert.Len(t, f.index.upserted["lcd_policies"], 1)
	assert.Len(t, f.index.upserted["hcpcs_codes"], 1)
	assert.Len(t, f.index.upserted["default"], 2)
}

func TestDeployTruncatesMetadataText(t *testing.T) {
	ctx := context.Background()
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'x'
	}
	chunks := []domain.Chunk{{ID: "big", Text: string(long), Metadata: map[string]any{"type": "lcd_policy"}}}
	f := newFixture(chunks)

	_, err := f.orch.Sync(ctx, driving.SyncOptions{})
	require.NoError(t, err)

	vecs := f.index.upserted["lcd_policies"]
	require.Len(t, vecs, 1)
	text, ok := vecs[0].Metadata["text"].(string)
	require.True(t, ok)
	assert.Len(t, text, 1000)
}
