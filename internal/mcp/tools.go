// ABOUTME: MCP tool definitions and registration for the coursemate server
// ABOUTME: Exposes the model-facing course tools plus list_courses and ask_courses
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/rag"
	"github.com/harper/coursemate/internal/tools"
)

// Assistant answers questions and reports the catalog
type Assistant interface {
	Query(ctx context.Context, text, sessionID string) (*rag.QueryResult, error)
	CourseAnalytics(ctx context.Context) (*rag.Analytics, error)
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, registry *tools.Registry, assistant Assistant, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	handlers := &Handlers{
		registry:  registry,
		assistant: assistant,
		logger:    logger,
	}

	// search_course_content and get_course_outline, with the schemas the model sees
	for _, def := range registry.Definitions() {
		server.AddTool(toMCPTool(def), handlers.CourseTool(def.Name))
	}

	// list_courses - catalog summary
	server.AddTool(mcp.Tool{
		Name:        "list_courses",
		Description: "List every indexed course with the total course count.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListCourses)

	// ask_courses - full question answering over the course materials
	server.AddTool(mcp.Tool{
		Name:        "ask_courses",
		Description: "Answer a question about the course materials. Returns the answer, its sources and a session id for follow-up questions.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question about the courses",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id from an earlier answer to continue that conversation",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskCourses)

	return handlers
}

// toMCPTool converts a model tool schema into an MCP tool
func toMCPTool(def llm.ToolDefinition) mcp.Tool {
	schema := mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}}
	if props, ok := def.InputSchema["properties"].(map[string]any); ok {
		schema.Properties = props
	}
	if required, ok := def.InputSchema["required"].([]string); ok {
		schema.Required = required
	}
	return mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: schema,
	}
}
