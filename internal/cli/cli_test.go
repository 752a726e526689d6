package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	prompt "github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/config"
)

func init() {
	color.NoColor = true
}

type fakeRunner struct {
	answer  string
	queries []string
}

func (r *fakeRunner) Run(ctx context.Context, query string) string {
	r.queries = append(r.queries, query)
	return r.answer
}

func TestPrintWelcome(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Secrets.ChatAPIKey = "gsk_test"

	var out bytes.Buffer
	printWelcome(&out, cfg, "9.9.9")

	if !strings.Contains(out.String(), "Researcher v9.9.9") {
		t.Errorf("Welcome should show the version passed in, got: %s", out.String())
	}
	if strings.Contains(out.String(), "GROQ_API_KEY") {
		t.Errorf("No key warning expected when the key is set, got: %s", out.String())
	}
}

func TestPrintWelcome_MissingAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()

	var out bytes.Buffer
	printWelcome(&out, cfg, "0.1.0")

	if !strings.Contains(out.String(), "GROQ_API_KEY is not set") {
		t.Errorf("Expected missing key warning, got: %s", out.String())
	}
}

func TestAnswerOnce(t *testing.T) {
	var out bytes.Buffer
	runner := &fakeRunner{answer: "Paris."}

	if err := answerOnce(context.Background(), runner, "capital of France?", &out); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if out.String() != "Paris.\n" {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestAnswerOnce_ErrorAnswer(t *testing.T) {
	var out bytes.Buffer
	runner := &fakeRunner{answer: "Error: failed to call model"}

	err := answerOnce(context.Background(), runner, "hello", &out)
	if !errors.Is(err, ErrQueryFailed) {
		t.Errorf("Expected ErrQueryFailed, got %v", err)
	}
	if strings.Count(out.String(), "Error:") != 1 {
		t.Errorf("Error answer should be printed exactly once, got: %q", out.String())
	}
}

func TestShellHandle_Query(t *testing.T) {
	runner := &fakeRunner{answer: "The capital of France is Paris."}
	var out bytes.Buffer
	shell := NewShell(runner, config.DefaultConfig(), &out)

	if !shell.Handle(context.Background(), "  What is the capital of France?  ") {
		t.Fatal("Shell should keep running after a query")
	}

	if len(runner.queries) != 1 || runner.queries[0] != "What is the capital of France?" {
		t.Errorf("Unexpected queries: %v", runner.queries)
	}
	if !strings.Contains(out.String(), "Researcher: The capital of France is Paris.") {
		t.Errorf("Answer not printed, got: %s", out.String())
	}
}

func TestShellHandle_ErrorAnswer(t *testing.T) {
	runner := &fakeRunner{answer: "Error: failed to call model"}
	var out bytes.Buffer
	shell := NewShell(runner, config.DefaultConfig(), &out)

	shell.Handle(context.Background(), "hello")

	if strings.Contains(out.String(), "Researcher:") {
		t.Errorf("Error answers should not be labeled as answers: %s", out.String())
	}
	if !strings.Contains(out.String(), "Error: failed to call model") {
		t.Errorf("Error not printed, got: %s", out.String())
	}
}

func TestShellHandle_Commands(t *testing.T) {
	tests := []struct {
		input    string
		running  bool
		contains string
	}{
		{input: "/help", running: true, contains: "Built-in Commands"},
		{input: "/config", running: true, contains: "llama-3.3-70b-versatile"},
		{input: "/unknown", running: true, contains: "Unknown command: /unknown"},
		{input: "/exit", running: false, contains: "Goodbye"},
		{input: "/QUIT", running: false, contains: "Goodbye"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			runner := &fakeRunner{}
			var out bytes.Buffer
			shell := NewShell(runner, config.DefaultConfig(), &out)

			if got := shell.Handle(context.Background(), tt.input); got != tt.running {
				t.Errorf("Handle(%q) = %v, want %v", tt.input, got, tt.running)
			}
			if !strings.Contains(out.String(), tt.contains) {
				t.Errorf("Output of %q should contain %q, got: %s", tt.input, tt.contains, out.String())
			}
			if len(runner.queries) != 0 {
				t.Errorf("Commands must not reach the agent: %v", runner.queries)
			}
		})
	}
}

func TestShellHandle_EmptyInput(t *testing.T) {
	runner := &fakeRunner{}
	shell := NewShell(runner, nil, &bytes.Buffer{})

	if !shell.Handle(context.Background(), "   ") {
		t.Error("Empty input should keep the shell running")
	}
	if len(runner.queries) != 0 {
		t.Error("Empty input should not be sent to the agent")
	}
}

func TestCompleter(t *testing.T) {
	buf := prompt.NewBuffer()
	buf.InsertText("/he", false, true)

	suggestions := completer(*buf.Document())
	if len(suggestions) != 1 || suggestions[0].Text != "/help" {
		t.Errorf("Expected /help suggestion, got %v", suggestions)
	}

	buf = prompt.NewBuffer()
	buf.InsertText("capital of", false, true)
	if suggestions := completer(*buf.Document()); len(suggestions) != 0 {
		t.Errorf("Plain text should not get suggestions, got %v", suggestions)
	}
}

func TestToolCallOutput(t *testing.T) {
	var out bytes.Buffer
	handler := ToolCallOutput(&out)

	handler("web_search", map[string]any{"query": "go"}, `{"query":"go","web_results":[]}`)
	handler("read_file", nil, `{"error":"Function read_file not found"}`)

	got := out.String()
	for _, want := range []string{"Calling tool: web_search", "query:go", "Status: done", "Calling tool: read_file", "Status: failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("Output should contain %q, got: %s", want, got)
		}
	}
}

func TestNewSearchProvider(t *testing.T) {
	tests := []struct {
		provider string
		expected string
	}{
		{provider: "", expected: "serper"},
		{provider: "serper", expected: "serper"},
		{provider: "DDG", expected: "duckduckgo"},
		{provider: "searxng", expected: "searxng"},
	}

	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.WebSearch.Provider = tt.provider

		provider, err := NewSearchProvider(cfg)
		if err != nil {
			t.Fatalf("NewSearchProvider(%q) failed: %v", tt.provider, err)
		}
		if provider.Name() != tt.expected {
			t.Errorf("NewSearchProvider(%q) = %s, want %s", tt.provider, provider.Name(), tt.expected)
		}
	}

	cfg := config.DefaultConfig()
	cfg.WebSearch.Provider = "bing"
	if _, err := NewSearchProvider(cfg); err == nil {
		t.Error("Unknown provider should return error")
	}
}

func TestNewScraper(t *testing.T) {
	cfg := config.DefaultConfig()

	scraper, err := NewScraper(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if scraper.Name() != "FireCrawl API" {
		t.Errorf("Default scraper should be Firecrawl, got %s", scraper.Name())
	}

	cfg.Scrape.Provider = "direct"
	scraper, err = NewScraper(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if scraper.Name() != "webpage" {
		t.Errorf("Expected direct scraper, got %s", scraper.Name())
	}

	cfg.Scrape.Provider = "selenium"
	if _, err := NewScraper(cfg); err == nil {
		t.Error("Unknown scraper should return error")
	}
}

func TestNewAgent(t *testing.T) {
	config.SetConfigDir(t.TempDir())

	ag, err := NewAgent(config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewAgent failed: %v", err)
	}
	if ag == nil {
		t.Fatal("NewAgent returned nil agent")
	}

	if got := ag.Run(context.Background(), ""); got != "Error: query cannot be empty" {
		t.Errorf("Unexpected answer for empty query: %s", got)
	}
}
