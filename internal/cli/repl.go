package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/agent"
	"github.com/hession/researcher/internal/config"
)

// ErrQueryFailed is returned by Ask after the error answer has already been
// printed, so callers only need to set the exit status.
var ErrQueryFailed = errors.New("query failed")

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	answerColor = color.New(color.FgBlue, color.Bold)
	toolColor   = color.New(color.FgYellow)
	hintColor   = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed)
)

// Runner answers a query with text. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, query string) string
}

var commands = []prompt.Suggest{
	{Text: "/help", Description: "Show help"},
	{Text: "/config", Description: "Show current configuration"},
	{Text: "/exit", Description: "Exit program"},
}

// Run starts the interactive shell.
func Run(cfg *config.Config, version string) error {
	out := color.Output

	ag, err := NewAgent(cfg, agent.WithToolCallHandler(ToolCallOutput(out)))
	if err != nil {
		return errors.Wrap(err, "failed to initialize agent")
	}

	printWelcome(out, cfg, version)

	shell := NewShell(ag, cfg, out)
	return shell.Loop(context.Background())
}

// Ask answers a single query and prints the answer to out.
func Ask(cfg *config.Config, query string, out io.Writer) error {
	ag, err := NewAgent(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize agent")
	}

	return answerOnce(context.Background(), ag, query, out)
}

func answerOnce(ctx context.Context, runner Runner, query string, out io.Writer) error {
	answer := runner.Run(ctx, query)
	fmt.Fprintln(out, answer)

	if strings.HasPrefix(answer, "Error: ") {
		return ErrQueryFailed
	}
	return nil
}

// Shell reads one input line at a time and prints the answer to it.
type Shell struct {
	runner Runner
	cfg    *config.Config
	out    io.Writer
}

func NewShell(runner Runner, cfg *config.Config, out io.Writer) *Shell {
	return &Shell{runner: runner, cfg: cfg, out: out}
}

// Loop reads input until /exit.
func (s *Shell) Loop(ctx context.Context) error {
	var history []string

	for {
		line := prompt.Input("You: ", completer,
			prompt.OptionTitle("researcher"),
			prompt.OptionPrefixTextColor(prompt.Green),
			prompt.OptionHistory(history),
		)

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		history = append(history, input)

		if !s.Handle(ctx, input) {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the shell should keep
// running.
func (s *Shell) Handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	if strings.HasPrefix(input, "/") {
		return s.handleCommand(input)
	}

	s.processInput(ctx, input)
	return true
}

func (s *Shell) processInput(ctx context.Context, input string) {
	hintColor.Fprintln(s.out, "Thinking...")

	answer := s.runner.Run(ctx, input)

	if strings.HasPrefix(answer, "Error: ") {
		errorColor.Fprintf(s.out, "\n%s\n\n", answer)
		return
	}

	answerColor.Fprint(s.out, "\nResearcher: ")
	fmt.Fprintf(s.out, "%s\n\n", answer)
}

// handleCommand handles built-in commands, returns true to continue loop, false to exit
func (s *Shell) handleCommand(cmd string) bool {
	switch strings.ToLower(strings.Fields(cmd)[0]) {
	case "/help":
		printHelp(s.out)
		return true

	case "/config":
		if s.cfg != nil {
			fmt.Fprintln(s.out, s.cfg.String())
		}
		return true

	case "/exit", "/quit", "/q":
		titleColor.Fprintln(s.out, "Goodbye!")
		return false

	default:
		toolColor.Fprintf(s.out, "Unknown command: %s\n", cmd)
		fmt.Fprintln(s.out, "Type /help for available commands")
		return true
	}
}

func completer(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursor()
	if !strings.HasPrefix(word, "/") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, word, true)
}

// ToolCallOutput prints each tool call the agent makes.
func ToolCallOutput(out io.Writer) agent.ToolCallHandler {
	return func(name string, args map[string]any, result string) {
		toolColor.Fprintf(out, "Calling tool: %s\n", name)
		if len(args) > 0 {
			hintColor.Fprintf(out, "   Args: %v\n", args)
		}
		if strings.HasPrefix(result, `{"error"`) {
			errorColor.Fprintln(out, "   Status: failed")
		} else {
			hintColor.Fprintln(out, "   Status: done")
		}
	}
}

func printWelcome(out io.Writer, cfg *config.Config, version string) {
	titleColor.Fprintf(out, "\nResearcher v%s\n", version)
	hintColor.Fprintf(out, "Model: %s\n", cfg.Model.Model)
	if !cfg.Secrets.IsAPIKeyConfigured() {
		errorColor.Fprintln(out, "GROQ_API_KEY is not set; queries will fail until it is exported or added to .env")
	}
	hintColor.Fprintln(out, "Type /help for help, /exit to quit")
	fmt.Fprintln(out)
}

func printHelp(out io.Writer) {
	titleColor.Fprintln(out, "\nResearcher Help")
	fmt.Fprintln(out, `
Built-in Commands:
  /help    - Show this help message
  /config  - Show current configuration
  /exit    - Exit program

Available Tools:
  web_search  - Search the web and return top results
  scrape_url  - Read the content of a webpage

Examples:
  "What is the capital of France?"
  "Summarize https://go.dev/doc/effective_go"`)
	fmt.Fprintln(out)
}
