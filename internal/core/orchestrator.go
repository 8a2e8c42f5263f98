// ABOUTME: Orchestrator runs the bounded tool-calling loop between the model and the tool registry
// ABOUTME: Phases are soliciting, executing and forcing-final; the last offers no tools
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/metrics"
	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/tools"
)

// DefaultMaxToolRounds is the number of rounds in which tools are offered
const DefaultMaxToolRounds = 2

// SystemPrompt tells the model how to use the course tools
const SystemPrompt = `You are an assistant specialized in course materials and educational content.

Tools:
- search_course_content: search inside course lessons for specific content or details
- get_course_outline: return a course's title, link, instructor and full lesson list

Tool usage:
- Use get_course_outline for questions about a course's structure, syllabus or list of lessons, and include the course title, course link and every lesson number and title in the answer
- Use search_course_content for questions about what a lesson or course actually says
- You may use a tool again after seeing a result, for example to find a lesson title first and then search for it
- If a tool finds nothing, say so plainly instead of guessing

Answers:
- General knowledge questions may be answered without tools
- Answer directly; do not describe your search process or mention the tools
- Be brief, accurate and educational, and include examples when they help`

// Phase is a state of the tool-calling loop
type Phase int

const (
	PhaseSoliciting Phase = iota
	PhaseExecuting
	PhaseForcingFinal
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSoliciting:
		return "soliciting"
	case PhaseExecuting:
		return "executing"
	case PhaseForcingFinal:
		return "forcing-final"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// roundMachine holds the transition rules of the loop
type roundMachine struct {
	phase     Phase
	round     int
	maxRounds int
}

// afterResponse moves on once the model has answered in the soliciting phase
func (m *roundMachine) afterResponse(resp *llm.ChatResponse) {
	if resp.WantsTools() {
		m.phase = PhaseExecuting
		return
	}
	m.phase = PhaseDone
}

// afterTools moves on once a round's tool calls have been answered
func (m *roundMachine) afterTools() {
	m.round++
	if m.round >= m.maxRounds {
		m.phase = PhaseForcingFinal
		return
	}
	m.phase = PhaseSoliciting
}

// ToolExecutor offers tool schemas and runs calls by name
type ToolExecutor interface {
	Definitions() []llm.ToolDefinition
	Execute(ctx context.Context, name, arguments string) (tools.Result, error)
}

// OrchestratorOptions configures an Orchestrator
type OrchestratorOptions struct {
	MaxRounds    int
	SystemPrompt string
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Orchestrator answers one query at a time; it keeps no per-query state and is safe to share
type Orchestrator struct {
	model     llm.ChatModel
	maxRounds int
	system    string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Response is the outcome of one query
type Response struct {
	Answer  string
	Sources []models.Source
	Rounds  int
}

// NewOrchestrator creates an Orchestrator. MaxRounds must be positive.
func NewOrchestrator(model llm.ChatModel, opts OrchestratorOptions) (*Orchestrator, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: chat model is required", models.ErrInvalidConfig)
	}
	if opts.MaxRounds <= 0 {
		return nil, fmt.Errorf("%w: max tool rounds must be positive, got %d", models.ErrInvalidConfig, opts.MaxRounds)
	}
	system := opts.SystemPrompt
	if system == "" {
		system = SystemPrompt
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		model:     model,
		maxRounds: opts.MaxRounds,
		system:    system,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// Respond answers query given prior exchanges. With a nil executor no tools are offered.
// Tool failures are shown to the model; model failures are returned.
func (o *Orchestrator) Respond(ctx context.Context, query string, history []models.Exchange, executor ToolExecutor) (*Response, error) {
	messages := historyMessages(history)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	var defs []llm.ToolDefinition
	if executor != nil {
		defs = executor.Definitions()
	}
	if len(defs) == 0 {
		defs = nil
	}

	machine := &roundMachine{phase: PhaseSoliciting, maxRounds: o.maxRounds}
	if defs == nil {
		machine.phase = PhaseForcingFinal
	}

	var (
		pending *llm.ChatResponse
		answer  string
		sources []models.Source
	)

	for machine.phase != PhaseDone {
		switch machine.phase {
		case PhaseSoliciting:
			resp, err := o.complete(ctx, messages, defs)
			if err != nil {
				return nil, err
			}
			o.logger.Debug("model replied",
				zap.Int("round", machine.round),
				zap.String("stop_reason", string(resp.StopReason)),
				zap.Int("tool_calls", len(resp.ToolCalls)))
			machine.afterResponse(resp)
			pending = resp
			answer = resp.Content

		case PhaseExecuting:
			calls := withCallIDs(pending.ToolCalls)
			results, latest := o.runCalls(ctx, executor, calls)
			if latest != nil {
				sources = latest
			}
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: pending.Content, ToolCalls: calls},
				llm.Message{Role: llm.RoleTool, ToolResults: results},
			)
			machine.afterTools()

		case PhaseForcingFinal:
			resp, err := o.complete(ctx, messages, nil)
			if err != nil {
				return nil, err
			}
			if resp.WantsTools() {
				o.logger.Warn("model requested tools after they were withdrawn", zap.Int("tool_calls", len(resp.ToolCalls)))
			}
			answer = resp.Content
			machine.phase = PhaseDone
		}
	}

	o.metrics.ObserveRounds(machine.round)
	return &Response{Answer: answer, Sources: sources, Rounds: machine.round}, nil
}

func (o *Orchestrator) complete(ctx context.Context, messages []llm.Message, defs []llm.ToolDefinition) (*llm.ChatResponse, error) {
	started := time.Now()
	resp, err := o.model.Complete(ctx, llm.ChatRequest{System: o.system, Messages: messages, Tools: defs})
	if err != nil {
		if errors.Is(err, models.ErrLLMTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLLMTransport, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", models.ErrLLMTransport)
	}
	o.logger.Debug("model call", zap.Bool("tools_offered", defs != nil), zap.Duration("elapsed", time.Since(started)))
	return resp, nil
}

// runCalls executes calls in the order requested. It returns one result per call and
// the sources of the last call that produced any.
func (o *Orchestrator) runCalls(ctx context.Context, executor ToolExecutor, calls []llm.ToolCall) ([]llm.ToolResult, []models.Source) {
	results := make([]llm.ToolResult, 0, len(calls))
	var sources []models.Source

	for _, call := range calls {
		res, err := executor.Execute(ctx, call.Name, call.Arguments)
		o.metrics.ObserveToolCall(call.Name, err != nil)
		if err != nil {
			o.logger.Warn("tool call failed", zap.String("tool", call.Name), zap.Error(err))
			results = append(results, llm.ToolResult{CallID: call.ID, Content: toolErrorText(call.Name, err), IsError: true})
			continue
		}
		o.logger.Debug("tool call", zap.String("tool", call.Name), zap.Int("sources", len(res.Sources)))
		if len(res.Sources) > 0 {
			sources = res.Sources
		}
		results = append(results, llm.ToolResult{CallID: call.ID, Content: res.Text})
	}
	return results, sources
}

func toolErrorText(name string, err error) string {
	if errors.Is(err, models.ErrUnknownTool) {
		return fmt.Sprintf("Tool error: unknown tool '%s'", name)
	}
	return fmt.Sprintf("Tool error: %v", err)
}

// withCallIDs fills in ids the model left empty so every result can be matched to its call
func withCallIDs(calls []llm.ToolCall) []llm.ToolCall {
	out := make([]llm.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = "call_" + uuid.New().String()[:8]
		}
		out[i] = c
	}
	return out
}

func historyMessages(history []models.Exchange) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, ex := range history {
		role := llm.RoleUser
		if ex.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: ex.Content})
	}
	return messages
}
