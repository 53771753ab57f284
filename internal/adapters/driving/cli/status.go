package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// recentPassLimit caps the history shown by the status command.
const recentPassLimit = 5

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and recent pass history",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	status := syncOrchestrator.Status(cmd.Context())
	cmd.Printf("Sync in progress: %v\n", status.InProgress)
	cmd.Printf("Documents indexed: %d\n", status.IndexedCount)
	cmd.Printf("Documents failed: %d\n", status.FailedCount)

	if syncHistory == nil {
		return nil
	}

	passes, err := syncHistory.RecentPasses(cmd.Context(), recentPassLimit)
	if err != nil {
		cmd.Printf("Could not read pass history: %v\n", err)
		return nil
	}
	if len(passes) == 0 {
		cmd.Println("No sync passes recorded yet.")
		return nil
	}

	cmd.Println("\nRecent passes:")
	for _, pass := range passes {
		line := pass.StartedAt.Local().Format(time.RFC3339)
		cmd.Printf("  %s  processed=%d skipped=%d failed=%d total=%d",
			line, pass.Stats.Processed, pass.Stats.Skipped, pass.Stats.Failed,
			pass.IndexedTotal)
		if pass.Error != "" {
			cmd.Printf("  error=%s", pass.Error)
		}
		cmd.Println()
	}
	return nil
}
