package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PromptConfig prompt configuration structure
type PromptConfig struct {
	System     string `yaml:"system"`
	Correction string `yaml:"correction"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		System: `You are a helpful research assistant. When users ask questions, you have access to tools that you can use to search for information.

IMPORTANT: Do NOT output function call syntax as text. Instead, use the available tools through the proper tool calling mechanism.

Available tools:
- web_search: Use this to search the web for information
- scrape_url: Use this to get detailed content from a specific URL

When you need information, use these tools and then provide a comprehensive answer based on the results.`,
		Correction: `You wrote a tool call as plain text. Do not write function call syntax in your reply. If you need a tool, call it through the tool calling mechanism; otherwise answer the question directly.`,
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt overrides from prompt.yaml, falling back to
// the defaults for anything the file leaves empty.
func LoadPromptConfig() (*PromptConfig, error) {
	cfg := DefaultPromptConfig()

	configPath, err := PromptConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read prompt config")
	}

	var override PromptConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, errors.Wrap(err, "failed to parse prompt config")
	}

	if override.System != "" {
		cfg.System = override.System
	}
	if override.Correction != "" {
		cfg.Correction = override.Correction
	}

	return cfg, nil
}
