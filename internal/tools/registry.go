package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/llm"
	"github.com/hession/researcher/internal/scrape"
	"github.com/hession/researcher/internal/websearch"
)

// Registry tool registry
type Registry struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register registers a tool
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return errors.Errorf("tool %s already exists", name)
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools in registration order
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Execute executes a tool by name
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", errors.Errorf("Function %s not found", name)
	}
	return tool.Execute(ctx, args)
}

// Dispatch executes a tool and always returns text for the transcript.
// Failures are reported as a JSON error object.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.ErrorContext(ctx, "tool panicked", slog.String("tool", name), slog.Any("panic", recovered))
			result = ErrorResult(fmt.Sprintf("tool %s failed: %v", name, recovered))
		}
	}()

	if _, exists := r.Get(name); !exists {
		slog.WarnContext(ctx, "unknown tool requested", slog.String("tool", name))
		return ErrorResult(fmt.Sprintf("Function %s not found", name))
	}

	output, err := r.Execute(ctx, name, args)
	if err != nil {
		slog.WarnContext(ctx, "tool execution failed", slog.String("tool", name), slog.Any("error", err))
		return ErrorResult(err.Error())
	}

	return output
}

// Schemas returns the function-calling declarations of every registered tool.
func (r *Registry) Schemas() []llm.Tool {
	tools := r.List()

	schemas := make([]llm.Tool, 0, len(tools))
	for _, tool := range tools {
		schemas = append(schemas, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return schemas
}

// ErrorResult encodes message as {"error": message}. The message is kept
// verbatim; <, > and & are not rewritten to \u escapes.
func ErrorResult(message string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string{"error": message}); err != nil {
		return `{"error": "unknown error"}`
	}
	return strings.TrimRight(buf.String(), "\n")
}

// NewDefaultRegistry registers web_search and scrape_url.
func NewDefaultRegistry(search *websearch.Service, scraper *scrape.Service) (*Registry, error) {
	registry := NewRegistry()

	webSearch, err := NewWebSearchTool(search)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	scrapeURL, err := NewScrapeURLTool(scraper)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, tool := range []Tool{webSearch, scrapeURL} {
		if err := registry.Register(tool); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return registry, nil
}
