// ABOUTME: Tests for the tool-calling loop using a scripted model and a scripted tool executor
// ABOUTME: Checks phase transitions, message growth per round, forced final answers and failure text
package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/tools"
)

type scriptedModel struct {
	replies  []*llm.ChatResponse
	err      error
	requests []llm.ChatRequest
}

func (m *scriptedModel) Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	msgs := make([]llm.Message, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.requests) > len(m.replies) {
		return nil, errors.New("script exhausted")
	}
	return m.replies[len(m.requests)-1], nil
}

type call struct {
	name      string
	arguments string
}

type scriptedExecutor struct {
	results map[string]tools.Result
	calls   []call
}

func (e *scriptedExecutor) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{Name: tools.SearchToolName, InputSchema: map[string]any{"type": "object"}},
		{Name: tools.OutlineToolName, InputSchema: map[string]any{"type": "object"}},
	}
}

func (e *scriptedExecutor) Execute(ctx context.Context, name, arguments string) (tools.Result, error) {
	e.calls = append(e.calls, call{name, arguments})
	if name != tools.SearchToolName && name != tools.OutlineToolName {
		return tools.Result{}, models.ErrUnknownTool
	}
	if strings.Contains(arguments, "broken") {
		return tools.Result{}, errors.New("invalid arguments for search_course_content: query is required")
	}
	return e.results[name], nil
}

func toolReply(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{ToolCalls: calls, StopReason: llm.StopToolUse}
}

func textReply(text string) *llm.ChatResponse {
	return &llm.ChatResponse{Content: text, StopReason: llm.StopEndTurn}
}

func newTestOrchestrator(t *testing.T, model llm.ChatModel) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(model, OrchestratorOptions{MaxRounds: DefaultMaxToolRounds})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	return o
}

func lessonSource() models.Source {
	return models.NewSource("Intro to Testing - Lesson 4", "https://example.com/testing/4")
}

func TestNewOrchestratorValidation(t *testing.T) {
	if _, err := NewOrchestrator(&scriptedModel{}, OrchestratorOptions{MaxRounds: 0}); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero rounds, got %v", err)
	}
	if _, err := NewOrchestrator(nil, OrchestratorOptions{MaxRounds: 2}); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for nil model, got %v", err)
	}
}

func TestRoundMachine(t *testing.T) {
	m := &roundMachine{phase: PhaseSoliciting, maxRounds: 2}

	m.afterResponse(toolReply(llm.ToolCall{Name: "x"}))
	if m.phase != PhaseExecuting {
		t.Fatalf("expected executing, got %s", m.phase)
	}
	m.afterTools()
	if m.phase != PhaseSoliciting || m.round != 1 {
		t.Fatalf("expected soliciting in round 1, got %s in round %d", m.phase, m.round)
	}
	m.afterResponse(toolReply(llm.ToolCall{Name: "x"}))
	m.afterTools()
	if m.phase != PhaseForcingFinal {
		t.Fatalf("expected forcing-final after the last round, got %s", m.phase)
	}

	m = &roundMachine{phase: PhaseSoliciting, maxRounds: 2}
	m.afterResponse(&llm.ChatResponse{StopReason: llm.StopToolUse})
	if m.phase != PhaseDone {
		t.Errorf("a tool_use stop without calls should be terminal, got %s", m.phase)
	}
}

func TestDirectAnswer(t *testing.T) {
	model := &scriptedModel{replies: []*llm.ChatResponse{textReply("Go is a programming language.")}}
	o := newTestOrchestrator(t, model)

	resp, err := o.Respond(context.Background(), "What is Go?", nil, &scriptedExecutor{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "Go is a programming language." || resp.Rounds != 0 || len(resp.Sources) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(model.requests) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(model.requests))
	}
	req := model.requests[0]
	if len(req.Tools) != 2 || req.System != SystemPrompt {
		t.Errorf("expected tools and system prompt on the first call, got %d tools", len(req.Tools))
	}
}

func TestTwoSequentialToolRounds(t *testing.T) {
	model := &scriptedModel{replies: []*llm.ChatResponse{
		toolReply(llm.ToolCall{ID: "call_1", Name: tools.OutlineToolName, Arguments: `{"course_name":"testing"}`}),
		toolReply(llm.ToolCall{ID: "call_2", Name: tools.SearchToolName, Arguments: `{"query":"mocking","course_name":"testing"}`}),
		textReply("Lesson 4 covers mocking."),
	}}
	executor := &scriptedExecutor{results: map[string]tools.Result{
		tools.OutlineToolName: {Text: "Lesson 4: Mocking", Sources: []models.Source{models.NewSource("Intro to Testing", "")}},
		tools.SearchToolName:  {Text: "[Intro to Testing - Lesson 4]\nMocks replace collaborators.", Sources: []models.Source{lessonSource()}},
	}}
	o := newTestOrchestrator(t, model)

	history := []models.Exchange{
		{Role: models.RoleUser, Content: "Hi"},
		{Role: models.RoleAssistant, Content: "Hello"},
	}
	resp, err := o.Respond(context.Background(), "What does the lesson about mocking cover?", history, executor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Answer != "Lesson 4 covers mocking." || resp.Rounds != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Label != "Intro to Testing - Lesson 4" {
		t.Errorf("expected the latest tool sources, got %+v", resp.Sources)
	}

	if len(model.requests) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(model.requests))
	}
	base := len(history) + 1
	for i, req := range model.requests {
		if want := base + 2*i; len(req.Messages) != want {
			t.Errorf("request %d: expected %d messages, got %d", i, want, len(req.Messages))
		}
	}
	if model.requests[2].Tools != nil {
		t.Error("tools must be withheld once the round budget is spent")
	}
	if model.requests[1].Tools == nil {
		t.Error("tools must still be offered in round 1")
	}

	final := model.requests[2].Messages
	if final[0].Role != llm.RoleUser || final[1].Role != llm.RoleAssistant || final[2].Content != "What does the lesson about mocking cover?" {
		t.Errorf("history not placed before the query: %+v", final[:3])
	}
	if final[3].Role != llm.RoleAssistant || final[3].ToolCalls[0].ID != "call_1" {
		t.Errorf("expected assistant tool request, got %+v", final[3])
	}
	if final[4].Role != llm.RoleTool || final[4].ToolResults[0].CallID != "call_1" || final[4].ToolResults[0].Content != "Lesson 4: Mocking" {
		t.Errorf("expected matching tool result, got %+v", final[4])
	}
	if len(executor.calls) != 2 {
		t.Errorf("expected 2 tool executions, got %d", len(executor.calls))
	}
}

func TestForcedFinalWhenModelKeepsAskingForTools(t *testing.T) {
	search := llm.ToolCall{ID: "c", Name: tools.SearchToolName, Arguments: `{"query":"x"}`}
	model := &scriptedModel{replies: []*llm.ChatResponse{
		toolReply(search),
		toolReply(search),
		{Content: "Best effort answer.", ToolCalls: []llm.ToolCall{search}, StopReason: llm.StopToolUse},
	}}
	executor := &scriptedExecutor{results: map[string]tools.Result{tools.SearchToolName: {Text: "nothing useful"}}}

	resp, err := newTestOrchestrator(t, model).Respond(context.Background(), "q", nil, executor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "Best effort answer." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if len(model.requests) != 3 || len(executor.calls) != 2 {
		t.Errorf("expected 3 model calls and 2 tool calls, got %d and %d", len(model.requests), len(executor.calls))
	}
}

func TestMultipleCallsInOneRound(t *testing.T) {
	model := &scriptedModel{replies: []*llm.ChatResponse{
		toolReply(
			llm.ToolCall{ID: "a", Name: tools.OutlineToolName, Arguments: `{"course_name":"testing"}`},
			llm.ToolCall{ID: "b", Name: tools.SearchToolName, Arguments: `{"query":"mocks"}`},
		),
		textReply("done"),
	}}
	executor := &scriptedExecutor{results: map[string]tools.Result{
		tools.OutlineToolName: {Text: "outline", Sources: []models.Source{models.NewSource("Intro to Testing", "")}},
		tools.SearchToolName:  {Text: "hits", Sources: []models.Source{lessonSource()}},
	}}

	resp, err := newTestOrchestrator(t, model).Respond(context.Background(), "q", nil, executor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executor.calls[0].name != tools.OutlineToolName || executor.calls[1].name != tools.SearchToolName {
		t.Errorf("calls not run in the requested order: %+v", executor.calls)
	}
	toolMsg := model.requests[1].Messages[2]
	if len(toolMsg.ToolResults) != 2 || toolMsg.ToolResults[0].CallID != "a" || toolMsg.ToolResults[1].CallID != "b" {
		t.Errorf("expected ordered results in one message, got %+v", toolMsg.ToolResults)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Label != "Intro to Testing - Lesson 4" {
		t.Errorf("expected sources of the last call, got %+v", resp.Sources)
	}
}

func TestToolFailuresAreFedBack(t *testing.T) {
	model := &scriptedModel{replies: []*llm.ChatResponse{
		toolReply(
			llm.ToolCall{Name: "drop_tables", Arguments: `{}`},
			llm.ToolCall{ID: "bad", Name: tools.SearchToolName, Arguments: `{"broken":true}`},
		),
		textReply("Sorry, I could not search."),
	}}
	executor := &scriptedExecutor{}

	resp, err := newTestOrchestrator(t, model).Respond(context.Background(), "q", nil, executor)
	if err != nil {
		t.Fatalf("tool failures must not abort the query: %v", err)
	}
	if resp.Answer != "Sorry, I could not search." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}

	msgs := model.requests[1].Messages
	first := msgs[1].ToolCalls[0]
	if first.ID == "" {
		t.Error("expected a generated id for a call without one")
	}
	results := msgs[2].ToolResults
	if results[0].CallID != first.ID || !results[0].IsError || results[0].Content != "Tool error: unknown tool 'drop_tables'" {
		t.Errorf("unexpected unknown-tool result: %+v", results[0])
	}
	if !results[1].IsError || !strings.Contains(results[1].Content, "query is required") {
		t.Errorf("unexpected argument-error result: %+v", results[1])
	}
}

func TestTransportFailurePropagates(t *testing.T) {
	model := &scriptedModel{err: errors.New("connection refused")}

	_, err := newTestOrchestrator(t, model).Respond(context.Background(), "q", nil, &scriptedExecutor{})
	if !errors.Is(err, models.ErrLLMTransport) {
		t.Fatalf("expected ErrLLMTransport, got %v", err)
	}
	if len(model.requests) != 1 {
		t.Errorf("transport failures must not be retried, got %d calls", len(model.requests))
	}
}

func TestNoExecutorOffersNoTools(t *testing.T) {
	model := &scriptedModel{replies: []*llm.ChatResponse{textReply("plain")}}

	resp, err := newTestOrchestrator(t, model).Respond(context.Background(), "q", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "plain" || model.requests[0].Tools != nil {
		t.Errorf("expected a single tool-free call, got %+v", model.requests[0])
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseForcingFinal.String() != "forcing-final" || Phase(9).String() != "Phase(9)" {
		t.Error("unexpected phase names")
	}
}
