// ABOUTME: Export command writes the indexed course catalog to a file or stdout
// ABOUTME: Supports YAML and Markdown
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/coursemate/internal/storage"
)

var (
	exportAs string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the course catalog",
		Long: `Export every indexed course with its link, instructor, chunk count
and lessons. Writes to stdout when no file is given.

Examples:
  coursemate export
  coursemate export --as markdown catalog.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVar(&exportAs, "as", "yaml", "Export format: yaml or markdown")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	var write func(io.Writer, *storage.ExportData) error
	switch exportAs {
	case "yaml", "yml":
		write = storage.WriteYAML
	case "markdown", "md":
		write = storage.WriteMarkdown
	default:
		return fmt.Errorf("invalid --as %q (want yaml or markdown)", exportAs)
	}

	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	data, err := a.store.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("exporting catalog: %w", err)
	}

	if len(args) == 0 {
		return write(cmd.OutOrStdout(), data)
	}

	outputPath := args[0]
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := write(file, data); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d course(s) to %s\n", len(data.Courses), outputPath)
	}
	return nil
}
