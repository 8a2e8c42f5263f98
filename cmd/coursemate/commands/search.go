// ABOUTME: CLI command to search course content directly
// ABOUTME: Runs the same filtered semantic search the chat model uses, without the model
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage"
)

var (
	searchCourse string
	searchLesson int
	searchLimit  int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search course content",
		Long: `Search indexed course content by meaning.

--course accepts a partial or approximate course name, resolved to the
closest indexed title. --lesson restricts results to one lesson.

Examples:
  coursemate search "vector embeddings"
  coursemate search --course "MCP" --lesson 2 "tool calling"
  coursemate search --limit 10 --format json "prompt caching"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringVar(&searchCourse, "course", "", "Course name (partial matches work)")
	cmd.Flags().IntVar(&searchLesson, "lesson", -1, "Lesson number")
	cmd.Flags().IntVar(&searchLimit, "limit", storage.DefaultMaxResults, "Maximum results to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	q := storage.SearchQuery{Query: args[0], CourseName: searchCourse, Limit: &searchLimit}
	if cmd.Flags().Changed("lesson") {
		q.LessonNumber = &searchLesson
	}

	results := a.store.Search(cmd.Context(), q)
	if results.Failed() {
		return errors.New(results.Error)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, results)
	}

	if results.IsEmpty() {
		if !quiet {
			fmt.Fprintf(out, "No course content found for query: %s\n", args[0])
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DISTANCE\tCOURSE\tLESSON\tPREVIEW\n")
	fmt.Fprintf(w, "--------\t------\t------\t-------\n")
	for _, hit := range results.Hits {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			hit.Distance,
			truncate(hit.Metadata.CourseTitle, 30),
			lessonColumn(hit.Metadata),
			truncate(collapseWhitespace(hit.Document), 60))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nFound %d result(s)\n", len(results.Hits))
	}
	return nil
}

func lessonColumn(meta models.ChunkMetadata) string {
	if meta.LessonNumber == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *meta.LessonNumber)
}
