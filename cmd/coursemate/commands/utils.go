// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Output helpers plus flag validation used by several commands
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harper/coursemate/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// writeSources prints a numbered citation list
func writeSources(w io.Writer, sources []models.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, s := range sources {
		if link := s.LinkOrEmpty(); link != "" {
			fmt.Fprintf(w, "  %d. %s <%s>\n", i+1, s.Label, link)
		} else {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s.Label)
		}
	}
}

// collapseWhitespace flattens a chunk for single-line previews
func collapseWhitespace(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
			if !space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		space = false
		out = append(out, r)
	}
	if n := len(out); n > 0 && out[n-1] == ' ' {
		out = out[:n-1]
	}
	return string(out)
}
