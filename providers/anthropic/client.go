// Package anthropic adapts the langchaingo Anthropic model for call recording.
//
// Messages are the primary endpoint and plain prompt completions the
// secondary one. Both have blocking and non-blocking forms:
//
//	client, err := anthropic.NewFromEnv()
//	resp, err := client.Messages.Create(ctx,
//	    []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "Hello")},
//	    llms.WithMaxTokens(256))
//
// Passing llms.WithStreamingFunc marks a call as streaming. Such calls are
// recorded without a response body.
package anthropic

import (
	"context"
	"errors"
	"os"

	"github.com/tmc/langchaingo/llms"
	lcanthropic "github.com/tmc/langchaingo/llms/anthropic"

	"github.com/petal-labs/warehouse/intercept"
)

// DefaultAPIKeyEnvVar is the environment variable name for the Anthropic API key.
const DefaultAPIKeyEnvVar = "ANTHROPIC_API_KEY"

// ErrAPIKeyNotFound is returned when the API key environment variable is not set.
var ErrAPIKeyNotFound = errors.New("anthropic: ANTHROPIC_API_KEY environment variable not set")

var _ llms.Model = (*lcanthropic.LLM)(nil)

// Client is an Anthropic client whose calls can be recorded.
// Client is safe for concurrent use.
type Client struct {
	// Messages exposes the messages API (primary endpoint).
	Messages *Messages

	// Completions exposes single-prompt completions (secondary endpoint).
	Completions *Completions

	// Async exposes the same endpoints as non-blocking calls.
	Async *AsyncClient

	model llms.Model
}

// NewFromEnv creates a client using the ANTHROPIC_API_KEY environment variable.
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(apiKey, opts...)
}

// New creates a client with the given API key and options.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := Config{
		APIKey:    apiKey,
		ModelName: DefaultModel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Model != nil {
		return Wrap(cfg.Model), nil
	}

	lcOpts := []lcanthropic.Option{
		lcanthropic.WithToken(cfg.APIKey),
		lcanthropic.WithModel(cfg.ModelName),
	}
	if cfg.BaseURL != "" {
		lcOpts = append(lcOpts, lcanthropic.WithBaseURL(cfg.BaseURL))
	}
	llm, err := lcanthropic.New(lcOpts...)
	if err != nil {
		return nil, err
	}
	return Wrap(llm), nil
}

// Wrap creates a client around an existing model.
func Wrap(m llms.Model) *Client {
	return &Client{
		Messages:    &Messages{model: m},
		Completions: &Completions{model: m},
		Async: &AsyncClient{
			Messages:    &AsyncMessages{model: m},
			Completions: &AsyncCompletions{model: m},
		},
		model: m,
	}
}

// Model returns the wrapped model.
func (c *Client) Model() llms.Model {
	return c.model
}

// Messages is the messages resource.
type Messages struct {
	model llms.Model
}

// Create sends a multi-message request.
func (r *Messages) Create(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return messagesCreate.Call(ctx, r.model, MessagesRequest{Messages: messages, Options: options})
}

// Completions is the single-prompt resource.
type Completions struct {
	model llms.Model
}

// Create sends a single prompt and returns the generated text.
func (r *Completions) Create(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return completionCreate.Call(ctx, r.model, CompletionRequest{Prompt: prompt, Options: options})
}

// AsyncClient groups the non-blocking resources.
type AsyncClient struct {
	Messages    *AsyncMessages
	Completions *AsyncCompletions
}

// AsyncMessages is the non-blocking messages resource.
type AsyncMessages struct {
	model llms.Model
}

// Create starts a multi-message request.
func (r *AsyncMessages) Create(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) <-chan intercept.Result[*llms.ContentResponse] {
	return asyncMessagesCreate.Call(ctx, r.model, MessagesRequest{Messages: messages, Options: options})
}

// AsyncCompletions is the non-blocking single-prompt resource.
type AsyncCompletions struct {
	model llms.Model
}

// Create starts a single-prompt request.
func (r *AsyncCompletions) Create(ctx context.Context, prompt string, options ...llms.CallOption) <-chan intercept.Result[string] {
	return asyncCompletionCreate.Call(ctx, r.model, CompletionRequest{Prompt: prompt, Options: options})
}
