package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Secrets API credentials, read from the environment once at startup.
// Missing keys are not an error here; the endpoint rejects the request later.
type Secrets struct {
	ChatAPIKey   string `env:"GROQ_API_KEY"`
	SearchAPIKey string `env:"SERPER_API_KEY"`
	ScrapeAPIKey string `env:"FIRECRAWL_API_KEY"`
}

// SecretsPaths returns the .env files consulted before reading the environment,
// in priority order.
func SecretsPaths() []string {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	return paths
}

// LoadSecrets loads optional .env files and decodes the environment.
// Variables already set in the environment win over .env values.
func LoadSecrets() (*Secrets, error) {
	for _, path := range SecretsPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", path)
		}
	}

	secrets := &Secrets{}
	if err := env.Parse(secrets); err != nil {
		return nil, errors.Wrap(err, "failed to parse secrets from environment")
	}

	return secrets, nil
}

// IsAPIKeyConfigured checks if the chat API key is configured
func (s Secrets) IsAPIKeyConfigured() bool {
	return s.ChatAPIKey != ""
}
