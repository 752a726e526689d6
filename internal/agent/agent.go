package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/config"
	"github.com/hession/researcher/internal/llm"
	"github.com/hession/researcher/internal/logger"
	"github.com/hession/researcher/internal/tools"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query cannot be empty")

// toolCallMarkup matches tool invocations written as plain text instead of
// structured tool calls. A bare tool name in prose is not an invocation; a
// call form needs the argument to follow the parenthesis directly.
var toolCallMarkup = regexp.MustCompile(`(?i)<function[=\s>]|</?tool_call>|\{\s*"name"\s*:\s*"(web_search|scrape_url)"|\b(web_search|scrape_url)\(\s*["'{]`)

// ChatClient is the part of llm.Client the agent depends on.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error)
}

// ToolCallHandler is notified after each dispatched tool call.
type ToolCallHandler func(name string, args map[string]any, result string)

// Agent resolves one query into one answer, letting the model call tools
// in between.
type Agent struct {
	llm             ChatClient
	registry        *tools.Registry
	prompts         *config.PromptConfig
	toolCallHandler ToolCallHandler
}

// Option agent configuration option
type Option func(*Agent)

// WithToolCallHandler sets the tool call handler
func WithToolCallHandler(handler ToolCallHandler) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// WithPrompts overrides the default system and corrective prompts.
func WithPrompts(prompts *config.PromptConfig) Option {
	return func(a *Agent) {
		if prompts != nil {
			a.prompts = prompts
		}
	}
}

// New creates a new Agent instance
func New(llmClient ChatClient, reg *tools.Registry, opts ...Option) *Agent {
	agent := &Agent{
		llm:      llmClient,
		registry: reg,
		prompts:  config.DefaultPromptConfig(),
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// Run answers query. It never panics and never fails: errors are returned
// as a string prefixed with "Error: ".
func (a *Agent) Run(ctx context.Context, query string) (answer string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.ErrorContext(ctx, "run panicked", slog.Any("panic", recovered))
			answer = fmt.Sprintf("Error: %v", recovered)
		}
	}()

	answer, err := a.Answer(ctx, query)
	if err != nil {
		return "Error: " + err.Error()
	}

	return answer
}

// Answer runs the tool-calling loop for query:
//
//  1. ask the model with tools attached;
//  2. if it wrote a tool call as text, correct it and ask once more;
//  3. dispatch the structured tool calls of that reply in order;
//  4. ask the model again without tools for the final answer.
func (a *Agent) Answer(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.WithStack(ErrEmptyQuery)
	}

	ctx = logger.WithAttrs(ctx, slog.String("run_id", uuid.NewString()))

	slog.InfoContext(ctx, "run started", slog.Int("query_length", len(query)))

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.prompts.System},
		{Role: llm.RoleUser, Content: query},
	}
	schemas := a.registry.Schemas()

	resp, err := a.llm.Chat(ctx, messages, schemas)
	if err != nil {
		return "", errors.Wrap(err, "failed to call model")
	}

	if len(resp.ToolCalls) == 0 && LooksLikeToolCall(resp.Content) {
		slog.WarnContext(ctx, "model wrote a tool call as text, retrying once")

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: resp.Content},
			llm.Message{Role: llm.RoleUser, Content: a.prompts.Correction},
		)

		resp, err = a.llm.Chat(ctx, messages, schemas)
		if err != nil {
			return "", errors.Wrap(err, "failed to call model")
		}
	}

	if len(resp.ToolCalls) == 0 {
		slog.InfoContext(ctx, "run finished without tools")
		return strings.TrimSpace(resp.Content), nil
	}

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	for _, toolCall := range resp.ToolCalls {
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    a.executeTool(ctx, toolCall),
			ToolCallID: toolCall.ID,
		})
	}

	final, err := a.llm.Chat(ctx, messages, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to call model for the final answer")
	}

	slog.InfoContext(ctx, "run finished", slog.Int("tool_calls", len(resp.ToolCalls)))

	return strings.TrimSpace(final.Content), nil
}

// executeTool parses the call arguments and dispatches the call. Every
// outcome, including unparseable arguments, is returned as tool output.
func (a *Agent) executeTool(ctx context.Context, toolCall llm.ToolCall) string {
	name := toolCall.Function.Name

	var args map[string]any
	var result string

	rawArgs := strings.TrimSpace(toolCall.Function.Arguments)
	if rawArgs == "" {
		rawArgs = "{}"
	}

	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		slog.WarnContext(ctx, "could not parse tool arguments", slog.String("tool", name), slog.Any("error", err))
		result = tools.ErrorResult(fmt.Sprintf("invalid arguments for %s: %v", name, err))
	} else {
		if args == nil {
			args = map[string]any{}
		}
		slog.DebugContext(ctx, "dispatching tool call", slog.String("tool", name), slog.String("tool_call_id", toolCall.ID))
		result = a.registry.Dispatch(ctx, name, args)
	}

	if a.toolCallHandler != nil {
		a.toolCallHandler(name, args, result)
	}

	return result
}

// LooksLikeToolCall reports whether text contains tool-invocation markup.
func LooksLikeToolCall(text string) bool {
	return toolCallMarkup.MatchString(text)
}
