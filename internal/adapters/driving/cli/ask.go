package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the indexed documents",
	Long: `Answers a natural-language question grounded in the indexed
documents. Falls back to a general answer when nothing relevant is
indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryEngine == nil {
		return errors.New("query engine not configured")
	}

	question := strings.Join(args, " ")
	cmd.Println(queryEngine.Answer(cmd.Context(), question))
	return nil
}
