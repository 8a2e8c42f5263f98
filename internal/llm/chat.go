// ABOUTME: Provider-neutral chat and embedding contracts used by the orchestrator and store
// ABOUTME: Tool results for one round travel as a single message so each round appends two messages
package llm

import (
	"context"
	"encoding/json"
)

// MessageRole identifies the author of a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// StopReason is why the model stopped generating
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// ToolDefinition is the schema of a capability offered to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is one tool invocation requested by the model
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RawArguments returns the arguments as JSON, treating an empty string as {}
func (tc ToolCall) RawArguments() json.RawMessage {
	if tc.Arguments == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(tc.Arguments)
}

// ToolResult answers one ToolCall
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one entry of the conversation sent to the model
type Message struct {
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ChatRequest is one model invocation. A nil Tools slice means no tools are offered.
type ChatRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// ChatResponse is the model's reply
type ChatResponse struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason StopReason
}

// WantsTools reports whether the reply requests tool execution
func (r *ChatResponse) WantsTools() bool {
	return len(r.ToolCalls) > 0
}

// ChatModel sends a request to a tool-calling language model
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Embedder turns texts into vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
