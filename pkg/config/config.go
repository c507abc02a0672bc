// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ConfigError is a fatal configuration problem found at startup.
type ConfigError string

func (e ConfigError) Error() string { return string(e) }

const (
	// ErrMissingToken means the required bot credential is absent.
	ErrMissingToken ConfigError = "TELEGRAM_TOKEN is required"
	// ErrMissingProviderKey means a delegated classifier was requested
	// without its credential.
	ErrMissingProviderKey ConfigError = "classifier provider requested but its API key is not set"
	// ErrUnknownProvider means TIRABOT_CLASSIFIER_PROVIDER has an
	// unrecognized value.
	ErrUnknownProvider ConfigError = "unknown classifier provider"
)

// Classifier provider selectors.
const (
	ProviderKeyword   = "keyword"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the full configuration surface. Only the bot token is required.
type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	ClassifierProvider string `env:"TIRABOT_CLASSIFIER_PROVIDER"`
	ClassifierModel    string `env:"TIRABOT_CLASSIFIER_MODEL"`

	// Pre-bound conversation and coordinator. When set, /start never
	// rebinds them.
	ChatID        string `env:"TIRABOT_CHAT_ID"`
	CoordinatorID string `env:"TIRABOT_COORDINATOR_ID"`

	WebhookURL string `env:"TIRABOT_WEBHOOK_URL"`
	Host       string `env:"TIRABOT_HOST" envDefault:"0.0.0.0"`
	Port       int    `env:"TIRABOT_PORT" envDefault:"8080"`

	RulesFile string `env:"TIRABOT_RULES_FILE"`
	ChunkSize int    `env:"TIRABOT_CHUNK_SIZE" envDefault:"3500"`
	Debug     bool   `env:"TIRABOT_DEBUG"`
}

// Load parses the environment. It does not validate — CLI-only runs have no
// Telegram credential; call Validate before starting the Telegram channel.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the requirements for a full Telegram deployment.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	_, err := c.ResolveProvider()
	return err
}

// ResolveProvider decides which classifier strategy to build. An explicit
// selector must have its credential; with no selector, a configured
// credential opts into that provider, otherwise keywords.
func (c *Config) ResolveProvider() (string, error) {
	switch c.ClassifierProvider {
	case ProviderKeyword:
		return ProviderKeyword, nil
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", ErrMissingProviderKey
		}
		return ProviderOpenAI, nil
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return "", ErrMissingProviderKey
		}
		return ProviderAnthropic, nil
	case "":
		if c.OpenAIAPIKey != "" {
			return ProviderOpenAI, nil
		}
		if c.AnthropicAPIKey != "" {
			return ProviderAnthropic, nil
		}
		return ProviderKeyword, nil
	default:
		return "", ErrUnknownProvider
	}
}
