// ABOUTME: MCP tool handler implementations for the coursemate server
// ABOUTME: Course tools go through the registry; failures become MCP error results
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/tools"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	registry  *tools.Registry
	assistant Assistant
	logger    *zap.Logger
}

// CourseTool returns the handler for a registry tool
func (h *Handlers) CourseTool(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res, err := h.registry.Execute(ctx, name, string(raw))
		if err != nil {
			h.logger.Warn("mcp tool call failed", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(withSources(res.Text, res.Sources)), nil
	}
}

// ListCourses handles the list_courses tool
func (h *Handlers) ListCourses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analytics, err := h.assistant.CourseAnalytics(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list courses: %v", err)), nil
	}

	responseJSON, err := json.Marshal(analytics)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// AskCourses handles the ask_courses tool
func (h *Handlers) AskCourses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	sessionID := request.GetString("session_id", "")

	result, err := h.assistant.Query(ctx, question, sessionID)
	if errors.Is(err, models.ErrEmptyQuery) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.logger.Error("ask_courses failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	responseJSON, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// withSources appends a citation list to tool text
func withSources(text string, sources []models.Source) string {
	if len(sources) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nSources:")
	for _, s := range sources {
		if link := s.LinkOrEmpty(); link != "" {
			fmt.Fprintf(&b, "\n- %s (%s)", s.Label, link)
		} else {
			fmt.Fprintf(&b, "\n- %s", s.Label)
		}
	}
	return b.String()
}
