// ABOUTME: CLI command to ask a question about the indexed courses
// ABOUTME: Prints the answer with its sources and the session id for follow-ups
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	querySession string
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the courses",
		Long: `Ask a question about the indexed courses.

The chat model decides whether to search course content or fetch a
course outline before answering. Pass --session to continue an earlier
conversation; history is only kept across runs with the sqlite or redis
history backend.

Examples:
  coursemate query "What does lesson 2 of the MCP course cover?"
  coursemate query --session 6f1c... "And lesson 3?"
  coursemate query --format json "Who teaches the retrieval course?"`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringVar(&querySession, "session", "", "Session id to continue")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{needChat: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.system.Query(cmd.Context(), args[0], querySession)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, result)
	}

	fmt.Fprintln(out, result.Answer)
	writeSources(out, result.Sources)
	if !quiet {
		fmt.Fprintf(out, "\nSession: %s\n", result.SessionID)
	}
	return nil
}
