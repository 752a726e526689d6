package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	WebSearch WebSearchConfig `yaml:"web_search"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Log       LogConfig       `yaml:"log"`

	// Secrets never come from the YAML file.
	Secrets Secrets `yaml:"-"`
}

// ModelConfig chat completion endpoint configuration
type ModelConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WebSearchConfig web search configuration
type WebSearchConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DefaultLimit   int    `yaml:"default_limit"`
	UserAgent      string `yaml:"user_agent"`
}

// ScrapeConfig webpage scraping configuration
type ScrapeConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
	MaxBytes       int64  `yaml:"max_bytes"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level   string `yaml:"level"`
	MaxDays int    `yaml:"max_days"`
	Console bool   `yaml:"console"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL:        "https://api.groq.com/openai",
			Model:          "llama-3.3-70b-versatile",
			MaxTokens:      2048,
			TimeoutSeconds: 60,
		},
		WebSearch: WebSearchConfig{
			Provider:       "serper",
			TimeoutSeconds: 10,
			DefaultLimit:   5,
			UserAgent:      "Researcher/0.1",
		},
		Scrape: ScrapeConfig{
			Provider:       "firecrawl",
			TimeoutSeconds: 30,
			UserAgent:      "Researcher/0.1",
			MaxBytes:       4_000_000,
		},
		Log: LogConfig{
			Level:   "info",
			MaxDays: 7,
			Console: false,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", errors.New("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads config.yaml over the defaults and merges secrets from the
// environment. A missing config file is not an error.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	cfg.Secrets = *secrets

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}

	content := "# Researcher Configuration File\n# API keys are read from the environment (GROQ_API_KEY, SERPER_API_KEY, FIRECRAWL_API_KEY)\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// EnsureConfigFile writes a config.yaml with the defaults when none exists,
// so users have a file to edit. It reports whether the file was created.
func EnsureConfigFile() (bool, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrap(err, "failed to stat config file")
	}

	if err := Save(DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model.BaseURL == "" {
		return errors.New("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return errors.New("config error: model.model cannot be empty")
	}
	if c.Model.MaxTokens <= 0 {
		return errors.New("config error: model.max_tokens must be greater than 0")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return errors.New("config error: model.timeout_seconds must be greater than 0")
	}

	switch provider := strings.ToLower(strings.TrimSpace(c.WebSearch.Provider)); provider {
	case "", "serper", "duckduckgo", "ddg", "searxng":
	default:
		return errors.Errorf("config error: unknown web_search.provider %q", provider)
	}
	if c.WebSearch.TimeoutSeconds <= 0 {
		return errors.New("config error: web_search.timeout_seconds must be greater than 0")
	}
	if c.WebSearch.DefaultLimit <= 0 || c.WebSearch.DefaultLimit > 5 {
		return errors.New("config error: web_search.default_limit must be between 1 and 5")
	}

	switch provider := strings.ToLower(strings.TrimSpace(c.Scrape.Provider)); provider {
	case "", "firecrawl", "direct":
	default:
		return errors.Errorf("config error: unknown scrape.provider %q", provider)
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return errors.New("config error: scrape.timeout_seconds must be greater than 0")
	}

	return nil
}

// Timeout returns the chat completion timeout
func (c ModelConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the search request timeout
func (c WebSearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the scrape request timeout
func (c ScrapeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`Researcher Configuration:
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Max Tokens: %d
    Timeout Seconds: %d
  Web Search:
    Provider: %s
    Base URL: %s
    API Key: %s
    Timeout Seconds: %d
    Default Limit: %d
  Scrape:
    Provider: %s
    Base URL: %s
    API Key: %s
    Timeout Seconds: %d
  Log:
    Level: %s
    Max Days: %d`,
		redactAPIKey(c.Secrets.ChatAPIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.MaxTokens,
		c.Model.TimeoutSeconds,
		c.WebSearch.Provider,
		orProviderDefault(c.WebSearch.BaseURL),
		redactAPIKey(c.Secrets.SearchAPIKey),
		c.WebSearch.TimeoutSeconds,
		c.WebSearch.DefaultLimit,
		c.Scrape.Provider,
		orProviderDefault(c.Scrape.BaseURL),
		redactAPIKey(c.Secrets.ScrapeAPIKey),
		c.Scrape.TimeoutSeconds,
		c.Log.Level,
		c.Log.MaxDays,
	)
}

func orProviderDefault(baseURL string) string {
	if baseURL == "" {
		return "(provider default)"
	}
	return baseURL
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
