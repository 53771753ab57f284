package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Wipe the index and rebuild it from scratch",
	Long: `Clears the index and the in-memory indexed and failed sets, then
runs a full synchronisation pass. Use when the index has drifted from
the sources.`,
	RunE: runResync,
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}

func runResync(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	cmd.Println("Clearing index and resynchronising...")
	syncOrchestrator.ForceFullResync(cmd.Context())

	status := syncOrchestrator.Status(cmd.Context())
	cmd.Printf("Done. %d documents indexed, %d marked failed.\n",
		status.IndexedCount, status.FailedCount)
	return nil
}
