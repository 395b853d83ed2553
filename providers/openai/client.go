// Package openai adapts github.com/sashabaranov/go-openai for call recording.
//
// The adapter mirrors the resource layout of the OpenAI API:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"))
//	resp, err := client.Chat.Completions.Create(ctx, goopenai.ChatCompletionRequest{
//	    Model:    goopenai.GPT4oMini,
//	    Messages: []goopenai.ChatCompletionMessage{{Role: "user", Content: "Hello"}},
//	})
//
// Calls go straight to go-openai until instrumentation is installed (see the
// install package). Afterwards every call made through any adapter client is
// recorded. Results and errors are the ones go-openai returns.
package openai

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/petal-labs/warehouse/intercept"
)

// DefaultAPIKeyEnvVar is the environment variable name for the OpenAI API key.
const DefaultAPIKeyEnvVar = "OPENAI_API_KEY"

// ErrAPIKeyNotFound is returned when the API key environment variable is not set.
var ErrAPIKeyNotFound = errors.New("openai: OPENAI_API_KEY environment variable not set")

// API is the part of *goopenai.Client the adapter calls.
type API interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req goopenai.ChatCompletionRequest) (*goopenai.ChatCompletionStream, error)
	CreateCompletion(ctx context.Context, req goopenai.CompletionRequest) (goopenai.CompletionResponse, error)
	CreateCompletionStream(ctx context.Context, req goopenai.CompletionRequest) (*goopenai.CompletionStream, error)
}

var _ API = (*goopenai.Client)(nil)

// Client is an OpenAI client whose calls can be recorded.
// Client is safe for concurrent use.
type Client struct {
	// Chat exposes the chat completions API (primary endpoint).
	Chat *Chat

	// Completions exposes the legacy text completions API (secondary endpoint).
	Completions *Completions

	// Async exposes the same endpoints as non-blocking calls.
	Async *AsyncClient

	api API
}

// NewFromEnv creates a client using the OPENAI_API_KEY environment variable.
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(apiKey, opts...), nil
}

// New creates a client with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.API != nil {
		return Wrap(cfg.API)
	}

	gc := goopenai.DefaultConfig(cfg.APIKey)
	gc.BaseURL = cfg.BaseURL
	gc.OrgID = cfg.OrgID
	if cfg.HTTPClient != nil {
		gc.HTTPClient = cfg.HTTPClient
	}
	return Wrap(goopenai.NewClientWithConfig(gc))
}

// Wrap creates a client around an existing API implementation,
// typically a *goopenai.Client the application already configured.
func Wrap(api API) *Client {
	return &Client{
		Chat:        &Chat{Completions: &ChatCompletions{api: api}},
		Completions: &Completions{api: api},
		Async: &AsyncClient{
			Chat:        &AsyncChat{Completions: &AsyncChatCompletions{api: api}},
			Completions: &AsyncCompletions{api: api},
		},
		api: api,
	}
}

// API returns the wrapped implementation.
func (c *Client) API() API {
	return c.api
}

// Chat groups the chat resources.
type Chat struct {
	Completions *ChatCompletions
}

// ChatCompletions is the chat completions resource.
type ChatCompletions struct {
	api API
}

// Create sends a chat completion request.
func (r *ChatCompletions) Create(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	return chatCreate.Call(ctx, r.api, req)
}

// CreateStream opens a streaming chat completion.
// The caller owns the returned stream and must close it.
func (r *ChatCompletions) CreateStream(ctx context.Context, req goopenai.ChatCompletionRequest) (*goopenai.ChatCompletionStream, error) {
	return chatCreateStream.Call(ctx, r.api, req)
}

// Stream opens a streaming chat completion and exposes its chunks as a
// single-use sequence. The stream is closed when iteration stops.
func (r *ChatCompletions) Stream(ctx context.Context, req goopenai.ChatCompletionRequest) (iter.Seq2[goopenai.ChatCompletionStreamResponse, error], error) {
	return chatStream.Call(ctx, r.api, req)
}

// Completions is the legacy text completions resource.
type Completions struct {
	api API
}

// Create sends a completion request.
func (r *Completions) Create(ctx context.Context, req goopenai.CompletionRequest) (goopenai.CompletionResponse, error) {
	return completionCreate.Call(ctx, r.api, req)
}

// CreateStream opens a streaming completion.
// The caller owns the returned stream and must close it.
func (r *Completions) CreateStream(ctx context.Context, req goopenai.CompletionRequest) (*goopenai.CompletionStream, error) {
	return completionCreateStream.Call(ctx, r.api, req)
}

// AsyncClient groups the non-blocking resources.
type AsyncClient struct {
	Chat        *AsyncChat
	Completions *AsyncCompletions
}

// AsyncChat groups the non-blocking chat resources.
type AsyncChat struct {
	Completions *AsyncChatCompletions
}

// AsyncChatCompletions is the non-blocking chat completions resource.
type AsyncChatCompletions struct {
	api API
}

// Create starts a chat completion request. The returned channel delivers
// exactly one result unless ctx is canceled first.
func (r *AsyncChatCompletions) Create(ctx context.Context, req goopenai.ChatCompletionRequest) <-chan intercept.Result[goopenai.ChatCompletionResponse] {
	return asyncChatCreate.Call(ctx, r.api, req)
}

// AsyncCompletions is the non-blocking legacy completions resource.
type AsyncCompletions struct {
	api API
}

// Create starts a completion request.
func (r *AsyncCompletions) Create(ctx context.Context, req goopenai.CompletionRequest) <-chan intercept.Result[goopenai.CompletionResponse] {
	return asyncCompletionCreate.Call(ctx, r.api, req)
}
