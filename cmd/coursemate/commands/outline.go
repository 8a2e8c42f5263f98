// ABOUTME: CLI command to print a course outline
// ABOUTME: Resolves approximate course names the same way the outline tool does
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/tools"
)

// NewOutlineCmd creates the outline command
func NewOutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline <course>",
		Short: "Show a course outline",
		Long: `Show the title, link, instructor and lesson list of a course.

Examples:
  coursemate outline "MCP"
  coursemate outline --format json "Building Towards Computer Use"`,
		Args: cobra.ExactArgs(1),
		RunE: runOutline,
	}

	return cmd
}

func runOutline(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	course, err := a.store.CourseOutline(cmd.Context(), args[0])
	if errors.Is(err, models.ErrCourseNotFound) {
		return fmt.Errorf("no course found matching '%s'", args[0])
	}
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), course)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tools.FormatOutline(course))
	return nil
}
