package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "maximum runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyStore == nil {
		return errors.New("history store not configured")
	}

	runs, err := historyStore.List(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No sync runs recorded.")
		return nil
	}

	cmd.Printf("%4s  %-20s %-8s %-9s %-32s %s\n", "RUN", "STARTED", "STATUS", "TRIGGER", "SNAPSHOT", "CHANGES")
	for _, run := range runs {
		changes := ""
		if !run.Changes.IsZero() {
			changes = fmt.Sprintf("+%d ~%d -%d", run.Changes.Added, run.Changes.Updated, run.Changes.Removed)
		}
		cmd.Printf("%4d  %-20s %-8s %-9s %-32s %s\n",
			run.ID, formatLocalTime(run.StartedAt), run.Status, run.TriggeredBy, run.SnapshotID, changes)
		if run.ErrorMessage != "" {
			cmd.Printf("      %s\n", run.ErrorMessage)
		}
	}
	return nil
}
