package anthropic

import (
	"github.com/tmc/langchaingo/llms"
)

// Config holds configuration for the Anthropic adapter.
type Config struct {
	// APIKey is the Anthropic API key (required unless Model is set).
	APIKey string

	// ModelName is the default model for calls that do not pass llms.WithModel.
	ModelName string

	// BaseURL is the API base URL. Empty keeps the langchaingo default.
	BaseURL string

	// Model replaces the langchaingo client entirely. Mostly useful in tests.
	Model llms.Model
}

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-3-5-haiku-latest"

// Option configures the Anthropic adapter.
type Option func(*Config)

// WithModelName sets the default model.
func WithModelName(name string) Option {
	return func(c *Config) {
		c.ModelName = name
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the underlying llms.Model implementation.
func WithModel(m llms.Model) Option {
	return func(c *Config) {
		c.Model = m
	}
}
