package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/backworkai/vectorsync/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard shows stored snapshots and the sync run ledger, and can
trigger syncs, rollbacks and approvals with keyboard shortcuts.

Controls:
  tab      - Switch between snapshots and history
  j/k      - Navigate rows
  s / S    - Sync / force sync
  r        - Roll back to the selected snapshot
  a        - Approve the selected paused snapshot
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	// Panic recovery so terminal state corruption comes with a trace
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Sync:      syncService,
		Snapshots: snapshotStore,
		History:   historyStore,
	})
	if err != nil {
		return fmt.Errorf("creating dashboard: %w", err)
	}

	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
