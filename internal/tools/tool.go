// ABOUTME: Tool is the closed set of capabilities the model can call during a query
// ABOUTME: Execution returns its text and citation sources together instead of storing them
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage"
)

// Result is the output of one tool execution
type Result struct {
	Text    string
	Sources []models.Source
}

// Tool is implemented only by the tools in this package
type Tool interface {
	Definition() llm.ToolDefinition
	// Execute decodes raw JSON arguments and runs the tool. Argument errors are returned;
	// retrieval problems are reported inside Result.Text.
	Execute(ctx context.Context, arguments string) (Result, error)
	tool()
}

// CourseIndex is the part of the vector store the tools read from
type CourseIndex interface {
	Search(ctx context.Context, q storage.SearchQuery) models.SearchResults
	CourseOutline(ctx context.Context, name string) (*models.Course, error)
	Course(ctx context.Context, title string) (*models.Course, error)
}

func decodeArguments(name, arguments string, dst any) error {
	if arguments == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), dst); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	return nil
}
