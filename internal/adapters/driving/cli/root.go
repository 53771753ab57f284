// Package cli implements the command-line surface. Commands talk to
// the core exclusively through the driving ports, wired in by main
// before Execute runs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/core/ports/driving"
)

// version is stamped by main at startup.
var version = "dev"

// Services wired in by main.
var (
	syncOrchestrator driving.SyncOrchestrator
	queryEngine      driving.QueryEngine
	syncHistory      driven.SyncHistoryStore
	loopRunner       LoopRunner
)

// LoopRunner starts the background sync loop and blocks until stopped.
type LoopRunner interface {
	Start(ctx context.Context) error
}

var rootCmd = &cobra.Command{
	Use:   "infobot",
	Short: "Document sync and question answering over Drive and Confluence",
	Long: `InfoBot keeps a local full-text index synchronised with Google Drive
and Confluence, and answers natural-language questions grounded in the
indexed documents.`,
	SilenceUsage: true,
}

// SetServices wires the core services into the command tree.
func SetServices(sync driving.SyncOrchestrator, query driving.QueryEngine) {
	syncOrchestrator = sync
	queryEngine = query
}

// SetHistory wires the sync history store used by the status command.
func SetHistory(store driven.SyncHistoryStore) {
	syncHistory = store
}

// SetLoopRunner wires the scheduler used by the serve-loop command.
func SetLoopRunner(runner LoopRunner) {
	loopRunner = runner
}

// SetVersion stamps the build version.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
