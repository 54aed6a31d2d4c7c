package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/backworkai/vectorsync/internal/adapters/driving/tui/keymap"
	"github.com/backworkai/vectorsync/internal/adapters/driving/tui/styles"
	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

// tab identifies the focused dashboard tab.
type tab int

const (
	tabSnapshots tab = iota
	tabHistory
)

// listLimit bounds how many rows each tab loads.
const listLimit = 50

// Messages produced by async commands.
type (
	snapshotsLoaded struct {
		snapshots []domain.Snapshot
		err       error
	}

	historyLoaded struct {
		runs []domain.SyncRun
		err  error
	}

	actionDone struct {
		verb    string
		outcome *driving.SyncOutcome
		err     error
	}
)

// App is the dashboard application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	spinner spinner.Model

	currentTab tab
	snapshots  []domain.Snapshot
	runs       []domain.SyncRun
	selected   int

	// busy is non-empty while a sync, rollback or approve is running.
	busy string

	// status is the last action's one-line result.
	status      string
	statusStyle func(...string) string

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new dashboard with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Title

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keys:       keymap.DefaultKeyMap(),
		spinner:    sp,
		currentTab: tabSnapshots,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("vectorsync"),
		a.loadSnapshots(),
		a.loadHistory(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if a.busy == "" {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case snapshotsLoaded:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.snapshots = msg.snapshots
		a.clampSelection()
		return a, nil

	case historyLoaded:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.runs = msg.runs
		a.clampSelection()
		return a, nil

	case actionDone:
		a.busy = ""
		if msg.err != nil {
			a.status = fmt.Sprintf("%s failed: %v", msg.verb, msg.err)
			a.statusStyle = a.styles.Error.Render
		} else {
			a.status = msg.outcome.Message
			switch msg.outcome.Status {
			case driving.OutcomePaused:
				a.statusStyle = a.styles.Warning.Render
			case driving.OutcomeSuccess:
				a.statusStyle = a.styles.Success.Render
			default:
				a.statusStyle = a.styles.Muted.Render
			}
		}
		return a, tea.Batch(a.loadSnapshots(), a.loadHistory())
	}

	return a, nil
}

//nolint:gocyclo // central key dispatcher
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Tab):
		if a.currentTab == tabSnapshots {
			a.currentTab = tabHistory
		} else {
			a.currentTab = tabSnapshots
		}
		a.selected = 0
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.selected < a.rowCount()-1 {
			a.selected++
		}
		return a, nil

	case key.Matches(msg, a.keys.Refresh):
		return a, tea.Batch(a.loadSnapshots(), a.loadHistory())

	case key.Matches(msg, a.keys.Sync):
		return a.startAction("sync", func() (*driving.SyncOutcome, error) {
			return a.ports.Sync.Sync(a.ctx, driving.SyncOptions{TriggeredBy: domain.TriggerManual})
		})

	case key.Matches(msg, a.keys.ForceSync):
		return a.startAction("force sync", func() (*driving.SyncOutcome, error) {
			return a.ports.Sync.Sync(a.ctx, driving.SyncOptions{Force: true, TriggeredBy: domain.TriggerManual})
		})

	case key.Matches(msg, a.keys.Rollback):
		snap := a.selectedSnapshot()
		if snap == nil {
			return a, nil
		}
		id := snap.SnapshotID
		return a.startAction("rollback", func() (*driving.SyncOutcome, error) {
			return a.ports.Sync.Rollback(a.ctx, id)
		})

	case key.Matches(msg, a.keys.Approve):
		snap := a.selectedSnapshot()
		if snap == nil {
			return a, nil
		}
		id := snap.SnapshotID
		return a.startAction("approve", func() (*driving.SyncOutcome, error) {
			return a.ports.Sync.Approve(a.ctx, id)
		})
	}

	return a, nil
}

// startAction runs one sync operation asynchronously. Only one action may
// be in flight at a time.
func (a *App) startAction(verb string, call func() (*driving.SyncOutcome, error)) (tea.Model, tea.Cmd) {
	if a.busy != "" {
		return a, nil
	}
	a.busy = verb
	a.status = ""
	return a, tea.Batch(
		a.spinner.Tick,
		func() tea.Msg {
			outcome, err := call()
			return actionDone{verb: verb, outcome: outcome, err: err}
		},
	)
}

func (a *App) loadSnapshots() tea.Cmd {
	return func() tea.Msg {
		snapshots, err := a.ports.Snapshots.ListSnapshots(a.ctx, listLimit)
		return snapshotsLoaded{snapshots: snapshots, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		runs, err := a.ports.History.List(a.ctx, listLimit)
		return historyLoaded{runs: runs, err: err}
	}
}

func (a *App) rowCount() int {
	if a.currentTab == tabSnapshots {
		return len(a.snapshots)
	}
	return len(a.runs)
}

func (a *App) clampSelection() {
	if count := a.rowCount(); a.selected >= count {
		a.selected = max(0, count-1)
	}
}

// selectedSnapshot returns the highlighted snapshot, or nil when the
// snapshots tab is not focused or empty.
func (a *App) selectedSnapshot() *domain.Snapshot {
	if a.currentTab != tabSnapshots || a.selected >= len(a.snapshots) {
		return nil
	}
	return &a.snapshots[a.selected]
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(a.styles.Title.Render("vectorsync"))
	b.WriteString("\n\n")
	b.WriteString(a.viewTabs())
	b.WriteString("\n\n")

	if a.currentTab == tabSnapshots {
		b.WriteString(a.viewSnapshots())
	} else {
		b.WriteString(a.viewHistory())
	}

	b.WriteString("\n")
	if a.busy != "" {
		b.WriteString(a.spinner.View())
		b.WriteString(a.styles.Normal.Render(" running " + a.busy + "..."))
		b.WriteString("\n")
	} else if a.status != "" {
		b.WriteString(a.statusStyle(a.status))
		b.WriteString("\n")
	}
	if a.err != nil {
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render(
		"[tab] switch  [j/k] navigate  [s] sync  [S] force  [r] rollback  [a] approve  [R] refresh  [q] quit"))

	return b.String()
}

func (a *App) viewTabs() string {
	snapTab := a.styles.Tab.Render("Snapshots")
	histTab := a.styles.ActiveTab.Render("History")
	if a.currentTab == tabSnapshots {
		snapTab = a.styles.ActiveTab.Render("Snapshots")
		histTab = a.styles.Tab.Render("History")
	}
	return snapTab + histTab
}

func (a *App) viewSnapshots() string {
	if len(a.snapshots) == 0 {
		return a.styles.Muted.Render("No snapshots stored. Press 's' to run a sync.")
	}

	var b strings.Builder
	b.WriteString(a.styles.Muted.Render(
		fmt.Sprintf("  %-32s %-17s %8s  %s", "SNAPSHOT", "CREATED", "CHUNKS", "STATE")))
	b.WriteString("\n")

	for i, snap := range a.snapshots {
		state := ""
		if snap.IsActive {
			state = a.styles.Active.Render("active")
		}
		line := fmt.Sprintf("%-32s %-17s %8d  %s",
			snap.SnapshotID, formatTime(snap.CreatedAt), snap.ChunkCount, state)
		b.WriteString(a.renderRow(i, line))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) viewHistory() string {
	if len(a.runs) == 0 {
		return a.styles.Muted.Render("No sync runs recorded.")
	}

	var b strings.Builder
	b.WriteString(a.styles.Muted.Render(
		fmt.Sprintf("  %4s  %-17s %-8s %-9s %s", "RUN", "STARTED", "STATUS", "TRIGGER", "CHANGES")))
	b.WriteString("\n")

	for i, run := range a.runs {
		changes := ""
		if !run.Changes.IsZero() {
			changes = fmt.Sprintf("+%d ~%d -%d", run.Changes.Added, run.Changes.Updated, run.Changes.Removed)
		}
		line := fmt.Sprintf("%4d  %-17s %-8s %-9s %s",
			run.ID, formatTime(run.StartedAt), a.renderRunStatus(run.Status), run.TriggeredBy, changes)
		b.WriteString(a.renderRow(i, line))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderRunStatus(status domain.RunStatus) string {
	text := fmt.Sprintf("%-8s", status)
	switch status {
	case domain.RunStatusSuccess:
		return a.styles.Success.Render(text)
	case domain.RunStatusFailed:
		return a.styles.Error.Render(text)
	case domain.RunStatusPaused:
		return a.styles.Warning.Render(text)
	default:
		return a.styles.Normal.Render(text)
	}
}

func (a *App) renderRow(index int, line string) string {
	if index == a.selected {
		return a.styles.Selected.Render("> " + line)
	}
	return a.styles.Normal.Render("  " + line)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentTab returns the focused tab index (for testing).
func (a *App) CurrentTab() int {
	return int(a.currentTab)
}

// Selected returns the highlighted row index (for testing).
func (a *App) Selected() int {
	return a.selected
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
}
