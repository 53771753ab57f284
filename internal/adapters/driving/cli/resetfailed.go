package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var resetFailedCmd = &cobra.Command{
	Use:   "reset-failed",
	Short: "Clear failure markers so failed documents are retried",
	RunE:  runResetFailed,
}

func init() {
	rootCmd.AddCommand(resetFailedCmd)
}

func runResetFailed(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	syncOrchestrator.ResetFailedDocuments(cmd.Context())
	cmd.Println("Failure markers cleared. The next pass will retry those documents.")
	return nil
}
