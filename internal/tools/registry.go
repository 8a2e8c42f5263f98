// ABOUTME: Registry holds the tools offered to the model and dispatches calls by name
// ABOUTME: Sources come back with each result; the last non-empty set is kept for direct callers
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/models"
)

// Registry is safe for concurrent use
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	order       []string
	lastSources []models.Source
}

// NewRegistry creates a registry holding the given tools
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewCourseRegistry registers the search and outline tools over one index
func NewCourseRegistry(index CourseIndex) *Registry {
	r, _ := NewRegistry(NewCourseSearchTool(index), NewCourseOutlineTool(index))
	return r
}

// Register adds a tool; names must be unique
func (r *Registry) Register(t Tool) error {
	name := t.Definition().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Has reports whether a tool is registered under name
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Definitions returns the tool schemas in registration order
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool. Tool-level error text is returned as a normal result.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (Result, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", models.ErrUnknownTool, name)
	}

	res, err := t.Execute(ctx, arguments)
	if err != nil {
		return Result{}, err
	}
	if len(res.Sources) > 0 {
		r.mu.Lock()
		r.lastSources = res.Sources
		r.mu.Unlock()
	}
	return res, nil
}

// LastSources returns the sources of the most recent execution that produced any
func (r *Registry) LastSources() []models.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Source, len(r.lastSources))
	copy(out, r.lastSources)
	return out
}

// ResetSources clears the remembered sources
func (r *Registry) ResetSources() {
	r.mu.Lock()
	r.lastSources = nil
	r.mu.Unlock()
}
