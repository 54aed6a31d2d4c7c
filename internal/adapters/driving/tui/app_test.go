package tui

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backworkai/vectorsync/internal/adapters/driven/storage/memory"
	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

type stubSyncService struct {
	lastCall string
	lastID   string
	outcome  *driving.SyncOutcome
	err      error
}

func (s *stubSyncService) Sync(_ context.Context, _ driving.SyncOptions) (*driving.SyncOutcome, error) {
	s.lastCall = "sync"
	return s.outcome, s.err
}

func (s *stubSyncService) Rollback(_ context.Context, id string) (*driving.SyncOutcome, error) {
	s.lastCall = "rollback"
	s.lastID = id
	return s.outcome, s.err
}

func (s *stubSyncService) Approve(_ context.Context, id string) (*driving.SyncOutcome, error) {
	s.lastCall = "approve"
	s.lastID = id
	return s.outcome, s.err
}

func (s *stubSyncService) Status(_ context.Context) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{}, nil
}

func newTestPorts() (*Ports, *stubSyncService) {
	svc := &stubSyncService{
		outcome: &driving.SyncOutcome{Status: driving.OutcomeSuccess, Message: "deployed"},
	}
	return &Ports{
		Sync:      svc,
		Snapshots: memory.NewSnapshotStore(),
		History:   memory.NewSyncHistoryStore(),
	}, svc
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewAppRequiresSyncService(t *testing.T) {
	app, err := NewApp(&Ports{
		Snapshots: memory.NewSnapshotStore(),
		History:   memory.NewSyncHistoryStore(),
	})

	assert.ErrorIs(t, err, ErrMissingSyncService)
	assert.Nil(t, app)
}

func TestAppStartsOnSnapshotsTab(t *testing.T) {
	ports, _ := newTestPorts()
	app, err := NewApp(ports)

	require.NoError(t, err)
	assert.Equal(t, int(tabSnapshots), app.CurrentTab())
	assert.NotNil(t, app.Init())
}

func TestTabSwitchesAndResetsSelection(t *testing.T) {
	ports, _ := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)

	app.Update(snapshotsLoaded{snapshots: []domain.Snapshot{
		{SnapshotID: "snap_a"}, {SnapshotID: "snap_b"},
	}})
	app.Update(keyMsg("j"))
	require.Equal(t, 1, app.Selected())

	app.Update(tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, int(tabHistory), app.CurrentTab())
	assert.Equal(t, 0, app.Selected())
}

func TestNavigationStaysInBounds(t *testing.T) {
	ports, _ := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)

	app.Update(snapshotsLoaded{snapshots: []domain.Snapshot{
		{SnapshotID: "snap_a"}, {SnapshotID: "snap_b"},
	}})

	app.Update(keyMsg("k"))
	assert.Equal(t, 0, app.Selected())

	app.Update(keyMsg("j"))
	app.Update(keyMsg("j"))
	app.Update(keyMsg("j"))
	assert.Equal(t, 1, app.Selected())
}

func TestSyncKeyRunsSync(t *testing.T) {
	ports, svc := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)

	_, cmd := app.Update(keyMsg("s"))
	require.NotNil(t, cmd)

	// Drain the batch so the async call actually executes.
	drainCmd(app, cmd)

	assert.Equal(t, "sync", svc.lastCall)
}

func TestRollbackUsesSelectedSnapshot(t *testing.T) {
	ports, svc := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)

	app.Update(snapshotsLoaded{snapshots: []domain.Snapshot{
		{SnapshotID: "snap_a"}, {SnapshotID: "snap_b"},
	}})
	app.Update(keyMsg("j"))

	_, cmd := app.Update(keyMsg("r"))
	require.NotNil(t, cmd)
	drainCmd(app, cmd)

	assert.Equal(t, "rollback", svc.lastCall)
	assert.Equal(t, "snap_b", svc.lastID)
}

func TestRollbackIgnoredOnHistoryTab(t *testing.T) {
	ports, svc := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := app.Update(keyMsg("r"))

	assert.Nil(t, cmd)
	assert.Empty(t, svc.lastCall)
}

func TestActionDoneRefreshesAndShowsStatus(t *testing.T) {
	ports, _ := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(actionDone{
		verb:    "sync",
		outcome: &driving.SyncOutcome{Status: driving.OutcomePaused, Message: "change volume too large"},
	})

	assert.NotNil(t, cmd)
	assert.Contains(t, app.View(), "change volume too large")
}

func TestViewRendersSnapshotRows(t *testing.T) {
	ports, _ := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	app.Update(snapshotsLoaded{snapshots: []domain.Snapshot{
		{SnapshotID: "snap_20260115_020000_aaaa1111", ChunkCount: 42, IsActive: true},
	}})

	view := app.View()
	assert.Contains(t, view, "snap_20260115_020000_aaaa1111")
	assert.Contains(t, view, "active")
}

func TestViewRendersHistoryRows(t *testing.T) {
	ports, _ := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	app.Update(historyLoaded{runs: []domain.SyncRun{
		{ID: 7, Status: domain.RunStatusPaused, TriggeredBy: domain.TriggerCron},
	}})
	app.Update(tea.KeyMsg{Type: tea.KeyTab})

	view := app.View()
	assert.Contains(t, view, "paused")
	assert.Contains(t, view, "cron")
}

// drainCmd executes a command tree, feeding resulting messages back into
// the app, so async service calls complete synchronously in tests.
// Spinner ticks are dropped to keep the drain finite.
func drainCmd(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			drainCmd(app, sub)
		}
	case spinner.TickMsg:
		return
	default:
		app.Update(msg)
	}
}
