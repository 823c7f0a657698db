// Package tools defines the Tool interface behavior implementations plug
// into, and a registry that executes them with tracing and metrics around
// each call.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	obs "github.com/kennelworks/kennel/observability"
)

// Tool is one callable capability offered to the model.
type Tool interface {
	// Name identifies the tool in tool-call requests.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Execute runs the tool against its input string.
	Execute(ctx context.Context, input string) (string, error)

	// Schema describes the expected input as a JSON schema.
	Schema() map[string]interface{}
}

// Registry holds the tool set an agent may call.
type Registry interface {
	Register(tool Tool) error
	Get(name string) (Tool, bool)

	// List returns the registered tool names in sorted order.
	List() []string

	// Execute resolves a tool by name and runs it.
	Execute(ctx context.Context, name string, input string) (string, error)
}

// DefaultRegistry is the in-memory Registry implementation.
type DefaultRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{tools: make(map[string]Tool)}
}

func (r *DefaultRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

func (r *DefaultRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns names sorted so the tool declarations sent to the model, and
// anything logged from them, come out in a stable order.
func (r *DefaultRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *DefaultRegistry) Execute(ctx context.Context, name string, input string) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool %s not found", name)
	}

	start := time.Now()
	span, ctx := obs.TracerImpl.StartSpan(ctx, "tool.execute")
	span.SetAttribute(obs.AttrToolName, name)
	defer span.End()

	result, err := tool.Execute(ctx, input)

	labels := map[string]string{"tool_name": name}
	obs.MetricsImpl.RecordLatency(time.Since(start), labels)
	if err != nil {
		obs.MetricsImpl.RecordError("tool_error", labels)
		span.SetStatus(obs.StatusCodeError, err.Error())
		return "", err
	}
	span.SetStatus(obs.StatusCodeOk, "")
	return result, nil
}
