// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents search courses, read outlines and ask questions via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/coursemate/internal/mcp"
	"github.com/harper/coursemate/internal/tools"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs coursemate as an MCP (Model Context Protocol) server over stdio.
Agents get search_course_content, get_course_outline, list_courses and
ask_courses. ask_courses needs OPENAI_API_KEY; the other tools work with
the hash embedder alone.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  coursemate mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "coursemate": {
  #       "command": "coursemate",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := newMCPServer(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("coursemate MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

func newMCPServer(a *app) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(
		"coursemate",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithInstructions("Answer questions about indexed course materials. Use get_course_outline for structure and search_course_content for details."),
	)
	mcp.RegisterTools(server, tools.NewCourseRegistry(a.store), a.system, a.logger.Named("mcp"))
	return server
}
