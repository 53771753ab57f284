package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveLoopCmd = &cobra.Command{
	Use:   "serve-loop",
	Short: "Run the background sync loop until interrupted",
	Long: `Runs the sync scheduler in the foreground: an initial pass at
startup, then one pass per configured interval. Stops cleanly on
SIGINT or SIGTERM.`,
	RunE: runServeLoop,
}

func init() {
	rootCmd.AddCommand(serveLoopCmd)
}

func runServeLoop(cmd *cobra.Command, _ []string) error {
	if loopRunner == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Sync loop running. Press Ctrl+C to stop.")
	if err := loopRunner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Sync loop stopped.")
	return nil
}
