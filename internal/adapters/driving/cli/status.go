package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active snapshot and most recent sync run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()

	status, err := syncService.Status(ctx)
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}

	cmd.Println("Vector Sync Status")
	cmd.Println("==================")
	cmd.Println()

	if status.ActiveSnapshotID == "" {
		cmd.Println("No active snapshot. Run 'vectorsync sync' to deploy.")
	} else {
		cmd.Printf("Active snapshot: %s\n", status.ActiveSnapshotID)
		cmd.Printf("  Chunks:   %d\n", status.ChunkCount)
		cmd.Printf("  Deployed: %s\n", formatLocalTime(status.LastDeployedAt))
	}
	cmd.Println()

	if status.LastRun == nil {
		cmd.Println("No sync runs recorded.")
	} else {
		run := status.LastRun
		cmd.Printf("Last run: #%d (%s, triggered by %s)\n", run.ID, run.Status, run.TriggeredBy)
		cmd.Printf("  Started: %s\n", formatLocalTime(run.StartedAt))
		if !run.CompletedAt.IsZero() {
			cmd.Printf("  Duration: %s\n", run.CompletedAt.Sub(run.StartedAt).Round(time.Second))
		}
		if !run.Changes.IsZero() {
			cmd.Printf("  Changes: %d added, %d updated, %d removed\n",
				run.Changes.Added, run.Changes.Updated, run.Changes.Removed)
		}
		if run.ErrorMessage != "" {
			cmd.Printf("  Detail: %s\n", run.ErrorMessage)
		}
	}

	printUpstreamChanges(cmd, status.LastDeployedAt)
	return nil
}

// printUpstreamChanges lists policy changes reported upstream since the
// last deploy, when the chunk source exposes a change feed.
func printUpstreamChanges(cmd *cobra.Command, since time.Time) {
	feed, ok := chunkSource.(driven.ChangeFeed)
	if !ok {
		return
	}

	changes, err := feed.RecentChanges(cmd.Context(), since, 20)
	if err != nil {
		cmd.Printf("\nCould not fetch upstream policy changes: %v\n", err)
		return
	}
	if len(changes) == 0 {
		return
	}

	cmd.Printf("\nUpstream policy changes since last deploy (%d):\n", len(changes))
	for _, change := range changes {
		cmd.Printf("  %-10s %-18s %s\n", change.PolicyID, change.ChangeType, formatLocalTime(change.ChangedAt))
	}
	cmd.Println("\nRun 'vectorsync sync' to pick these up.")
}

func formatLocalTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
