package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronisation pass",
	Long: `Runs one synchronisation pass across all configured sources and
blocks until it completes. A pass already in flight makes this a no-op.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	cmd.Println("Synchronising all sources...")
	syncOrchestrator.TriggerSync(cmd.Context())

	status := syncOrchestrator.Status(cmd.Context())
	cmd.Printf("Done. %d documents indexed, %d marked failed.\n",
		status.IndexedCount, status.FailedCount)
	return nil
}
