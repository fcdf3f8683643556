// Package toolkit holds the tool abstraction shared by the primary agent's
// builtin tools and bridged sub-tools. A ToolRegistry is built per session;
// it is never shared across requests.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/relaymind/relay/internal/schema"
)

// Tool is the generic interface for agent tools. The type parameter T defines
// the input struct deserialized from the model's JSON arguments.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (*Result, error)
}

// Result is the output of a tool execution.
type Result struct {
	Content []anthropic.ContentBlockParamUnion
	IsError bool
}

// TextResult builds a text-only tool result.
func TextResult(text string) *Result {
	return &Result{
		Content: []anthropic.ContentBlockParamUnion{
			anthropic.NewTextBlock(text),
		},
	}
}

// ErrorResult builds an error tool result.
func ErrorResult(text string) *Result {
	return &Result{
		Content: []anthropic.ContentBlockParamUnion{
			anthropic.NewTextBlock(text),
		},
		IsError: true,
	}
}

// Text extracts the first text block from a result, or "".
func (r *Result) Text() string {
	for _, b := range r.Content {
		if b.OfText != nil {
			return b.OfText.Text
		}
	}
	return ""
}

// entry is the type-erased wrapper stored in the registry.
type entry struct {
	name        string
	description string
	schema      anthropic.ToolInputSchemaParam
	execute     func(ctx context.Context, raw json.RawMessage) (*Result, error)
}

// Registry manages the tools exposed to one session. Concurrent-safe;
// registration order is preserved for the API tool listing.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register adds a generic tool. The input type T drives JSON Schema generation.
func Register[T any](r *Registry, tool Tool[T]) {
	s := schema.Generate[T]()
	r.RegisterRaw(tool.Name(), tool.Description(), s,
		func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var input T
			if err := json.Unmarshal(raw, &input); err != nil {
				return ErrorResult(fmt.Sprintf("invalid input: %s", err.Error())), nil
			}
			return tool.Execute(ctx, input)
		})
}

// RegisterRaw adds a tool with a pre-built schema and execute function.
// Bridged sub-tools use this since their schemas come from the remote server.
func (r *Registry) RegisterRaw(
	name, description string,
	inputSchema anthropic.ToolInputSchemaParam,
	execute func(ctx context.Context, raw json.RawMessage) (*Result, error),
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = &entry{
		name:        name,
		description: description,
		schema:      inputSchema,
		execute:     execute,
	}
}

// Remove deletes a tool by name. Unknown names are ignored.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Execute runs a tool by name with the given raw JSON input.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (*Result, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return e.execute(ctx, input)
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ListForAPI returns the registered tools in Anthropic API form.
func (r *Registry) ListForAPI() []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]anthropic.ToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		e := r.tools[name]
		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        e.name,
				Description: param.NewOpt(e.description),
				InputSchema: e.schema,
			},
		})
	}
	return result
}
