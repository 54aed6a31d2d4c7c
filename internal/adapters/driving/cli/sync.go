package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backworkai/vectorsync/internal/core/ports/driving"
)

var (
	flagSyncFull  bool
	flagSyncForce bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch chunks, snapshot them and deploy to the vector index",
	Long: `Runs one sync: fetches the current chunk set from the chunk builder,
captures it as an immutable snapshot, diffs it against the active
snapshot, and deploys when the change volume is within the safety
threshold.

A sync whose change volume exceeds the threshold is paused: the snapshot
is preserved but nothing is deployed. Review it and run
'vectorsync snapshots approve <id>' to deploy, or re-run with --force.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&flagSyncFull, "full", false, "redeploy the full chunk set even when content is unchanged")
	syncCmd.Flags().BoolVar(&flagSyncForce, "force", false, "bypass the safety gate")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	if chunkSource == nil {
		return errors.New("no chunk source configured; run 'vectorsync settings source' first")
	}

	cmd.Println("Starting sync...")

	outcome, err := syncService.Sync(cmd.Context(), driving.SyncOptions{
		Full:  flagSyncFull,
		Force: flagSyncForce,
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printOutcome(cmd, outcome)
	return nil
}

// printOutcome renders a sync outcome for the terminal.
func printOutcome(cmd *cobra.Command, outcome *driving.SyncOutcome) {
	switch outcome.Status {
	case driving.OutcomeSuccess:
		cmd.Printf("Sync complete: snapshot %s is now active.\n", outcome.SnapshotID)
		cmd.Printf("  Changes: %d added, %d updated, %d removed\n",
			outcome.Changes.Added, outcome.Changes.Updated, outcome.Changes.Removed)
	case driving.OutcomeUnchanged:
		cmd.Printf("No changes: content matches snapshot %s.\n", outcome.SnapshotID)
	case driving.OutcomePaused:
		cmd.Printf("Sync PAUSED: %s\n", outcome.Message)
		cmd.Printf("  Snapshot %s is preserved but not deployed.\n", outcome.SnapshotID)
		cmd.Printf("  Review and approve with: vectorsync snapshots approve %s\n", outcome.SnapshotID)
	case driving.OutcomeNoChange:
		cmd.Printf("Snapshot %s is already active, nothing to do.\n", outcome.SnapshotID)
	default:
		cmd.Printf("%s: %s\n", outcome.Status, outcome.Message)
	}
}
