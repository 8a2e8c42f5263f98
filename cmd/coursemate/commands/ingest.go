// ABOUTME: CLI command to index course documents
// ABOUTME: Accepts a single .txt file or a folder; folders skip courses already indexed
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	ingestClear bool
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Index course documents",
		Long: `Index course documents for retrieval.

A folder is scanned for .txt course documents in name order. Courses whose
title is already indexed are skipped; a file that cannot be parsed is
reported and the rest of the folder continues. A single file is always
(re)indexed, replacing any earlier copy of that course.

Examples:
  coursemate ingest docs/
  coursemate ingest --clear docs/
  coursemate ingest docs/course1_script.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().BoolVar(&ingestClear, "clear", false, "Remove all indexed courses first")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !info.IsDir() {
		if ingestClear {
			if err := a.store.Clear(ctx); err != nil {
				return err
			}
		}
		course, chunks, err := a.system.AddCourseDocument(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		if jsonOutput() {
			return writeJSON(out, map[string]any{
				"course": course.Title, "lessons": len(course.Lessons), "chunks": chunks,
			})
		}
		fmt.Fprintf(out, "Indexed %q: %d lessons, %d chunks\n", course.Title, len(course.Lessons), chunks)
		return nil
	}

	report, err := a.system.AddCourseFolder(ctx, path, ingestClear)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	if jsonOutput() {
		return writeJSON(out, report)
	}

	fmt.Fprintf(out, "Added %d course(s), %d chunk(s)\n", report.CoursesAdded, report.ChunksAdded)
	if !quiet {
		for _, title := range report.Skipped {
			fmt.Fprintf(out, "  skipped (already indexed): %s\n", title)
		}
	}
	for _, f := range report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %s: %s\n", f.Path, f.Err)
	}
	return nil
}
