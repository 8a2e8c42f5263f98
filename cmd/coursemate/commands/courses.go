// ABOUTME: CLI command to list indexed courses
// ABOUTME: Prints the same analytics the HTTP API serves at /api/courses
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCoursesCmd creates the courses command
func NewCoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List indexed courses",
		Args:  cobra.NoArgs,
		RunE:  runCourses,
	}

	return cmd
}

func runCourses(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	analytics, err := a.system.CourseAnalytics(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, analytics)
	}

	if analytics.CourseCount == 0 {
		if !quiet {
			fmt.Fprintln(out, "No courses indexed. Run: coursemate ingest <folder>")
		}
		return nil
	}
	for _, title := range analytics.CourseTitles {
		fmt.Fprintln(out, title)
	}
	if !quiet {
		fmt.Fprintf(out, "\n%d course(s)\n", analytics.CourseCount)
	}
	return nil
}
