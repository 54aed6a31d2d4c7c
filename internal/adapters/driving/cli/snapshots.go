package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flagSnapshotsLimit int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage stored snapshots",
	Long: `List, inspect, roll back to, and approve stored snapshots.

Every sync that changes content creates an immutable snapshot. The
active snapshot is the one currently reflected in the vector index;
any other snapshot can be made active again with 'rollback'.`,
	RunE: runSnapshotsList,
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE:  runSnapshotsList,
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <snapshot-id>",
	Short: "Show a snapshot's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsShow,
}

var snapshotsRollbackCmd = &cobra.Command{
	Use:   "rollback <snapshot-id>",
	Short: "Redeploy a past snapshot and make it active",
	Long: `Redeploys the stored chunk set of a past snapshot to the vector index
and marks it active. The current source state is never consulted; the
snapshot's chunks are pushed verbatim.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotsRollback,
}

var snapshotsApproveCmd = &cobra.Command{
	Use:   "approve <snapshot-id>",
	Short: "Deploy a snapshot that was paused by the safety gate",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsApprove,
}

func init() {
	snapshotsCmd.PersistentFlags().IntVarP(&flagSnapshotsLimit, "limit", "n", 20, "maximum snapshots to list")
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsRollbackCmd)
	snapshotsCmd.AddCommand(snapshotsApproveCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshotsList(cmd *cobra.Command, _ []string) error {
	if snapshotStore == nil {
		return errors.New("snapshot store not configured")
	}

	snapshots, err := snapshotStore.ListSnapshots(cmd.Context(), flagSnapshotsLimit)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	if len(snapshots) == 0 {
		cmd.Println("No snapshots stored. Run 'vectorsync sync' to create one.")
		return nil
	}

	cmd.Printf("%-32s %-20s %8s  %-8s\n", "SNAPSHOT", "CREATED", "CHUNKS", "STATE")
	for _, snap := range snapshots {
		state := ""
		if snap.IsActive {
			state = "active"
		}
		cmd.Printf("%-32s %-20s %8d  %-8s\n",
			snap.SnapshotID, formatLocalTime(snap.CreatedAt), snap.ChunkCount, state)
	}
	return nil
}

func runSnapshotsShow(cmd *cobra.Command, args []string) error {
	if snapshotStore == nil {
		return errors.New("snapshot store not configured")
	}

	snap, err := snapshotStore.GetSnapshot(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting snapshot: %w", err)
	}

	cmd.Printf("Snapshot %s\n", snap.SnapshotID)
	cmd.Printf("  Created:      %s\n", formatLocalTime(snap.CreatedAt))
	cmd.Printf("  Chunks:       %d\n", snap.ChunkCount)
	cmd.Printf("  Content hash: %s\n", snap.ContentHash)
	if snap.IsActive {
		cmd.Printf("  State:        active (deployed %s)\n", formatLocalTime(snap.DeployedAt))
	} else if !snap.DeployedAt.IsZero() {
		cmd.Printf("  State:        inactive (last deployed %s)\n", formatLocalTime(snap.DeployedAt))
	} else {
		cmd.Printf("  State:        never deployed\n")
	}

	// Chunk type breakdown.
	types := make(map[string]int)
	for _, chunk := range snap.Chunks {
		types[chunk.Type()]++
	}
	if len(types) > 0 {
		cmd.Println("  Chunk types:")
		for chunkType, count := range types {
			if chunkType == "" {
				chunkType = "(untyped)"
			}
			cmd.Printf("    %-20s %d\n", chunkType, count)
		}
	}
	return nil
}

func runSnapshotsRollback(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	cmd.Printf("Rolling back to snapshot %s...\n", args[0])

	outcome, err := syncService.Rollback(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	printOutcome(cmd, outcome)
	return nil
}

func runSnapshotsApprove(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	cmd.Printf("Approving snapshot %s...\n", args[0])

	outcome, err := syncService.Approve(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}

	printOutcome(cmd, outcome)
	return nil
}
