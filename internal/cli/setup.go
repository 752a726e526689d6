package cli

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/agent"
	"github.com/hession/researcher/internal/config"
	"github.com/hession/researcher/internal/llm"
	"github.com/hession/researcher/internal/scrape"
	"github.com/hession/researcher/internal/tools"
	"github.com/hession/researcher/internal/websearch"
)

// NewSearchProvider builds the search backend named in cfg.
func NewSearchProvider(cfg *config.Config) (websearch.Provider, error) {
	search := cfg.WebSearch

	switch strings.ToLower(strings.TrimSpace(search.Provider)) {
	case "", "serper":
		return websearch.NewSerperProvider(search.BaseURL, cfg.Secrets.SearchAPIKey, search.UserAgent, search.Timeout()), nil
	case "duckduckgo", "ddg":
		return websearch.NewDuckDuckGoProvider(search.BaseURL, search.UserAgent, search.Timeout()), nil
	case "searxng":
		return websearch.NewSearXNGProvider(search.BaseURL, search.UserAgent, search.Timeout())
	default:
		return nil, errors.Errorf("unknown search provider '%s'", search.Provider)
	}
}

// NewScraper builds the scrape backend named in cfg.
func NewScraper(cfg *config.Config) (scrape.Scraper, error) {
	sc := cfg.Scrape

	switch strings.ToLower(strings.TrimSpace(sc.Provider)) {
	case "", "firecrawl":
		return scrape.NewFirecrawlScraper(sc.BaseURL, cfg.Secrets.ScrapeAPIKey, sc.Timeout()), nil
	case "direct":
		return scrape.NewDirectScraper(sc.UserAgent, sc.MaxBytes, sc.Timeout()), nil
	default:
		return nil, errors.Errorf("unknown scrape provider '%s'", sc.Provider)
	}
}

// NewAgent wires the chat client, both tools and the prompts into an agent.
func NewAgent(cfg *config.Config, opts ...agent.Option) (*agent.Agent, error) {
	provider, err := NewSearchProvider(cfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	scraper, err := NewScraper(cfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	registry, err := tools.NewDefaultRegistry(
		websearch.NewService(provider, cfg.WebSearch.DefaultLimit),
		scrape.NewService(scraper),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build tool registry")
	}

	prompts, err := config.LoadPromptConfig()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	llmClient := llm.New(
		cfg.Secrets.ChatAPIKey,
		cfg.Model.BaseURL,
		cfg.Model.Model,
		0.0,
		cfg.Model.MaxTokens,
		llm.WithTimeout(cfg.Model.Timeout()),
	)

	slog.Debug("agent ready",
		slog.String("model", cfg.Model.Model),
		slog.String("search_provider", provider.Name()),
		slog.String("scraper", scraper.Name()),
	)

	return agent.New(llmClient, registry, append([]agent.Option{agent.WithPrompts(prompts)}, opts...)...), nil
}
