package anthropic

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/petal-labs/warehouse/intercept"
	"github.com/petal-labs/warehouse/providers"
)

// Owner names registered by this adapter.
const (
	OwnerMessages         = "anthropic.messages"
	OwnerCompletions      = "anthropic.completions"
	OwnerAsyncMessages    = "anthropic.async.messages"
	OwnerAsyncCompletions = "anthropic.async.completions"
)

func generate(ctx context.Context, m llms.Model, req MessagesRequest) (*llms.ContentResponse, error) {
	return m.GenerateContent(ctx, req.Messages, req.Options...)
}

func complete(ctx context.Context, m llms.Model, req CompletionRequest) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, req.Prompt, req.Options...)
}

var (
	messagesCreate   = intercept.NewSync(generate).RequestView(messagesView)
	completionCreate = intercept.NewSync(complete).RequestView(completionView)

	asyncMessagesCreate = intercept.NewAsync(func(ctx context.Context, m llms.Model, req MessagesRequest) <-chan intercept.Result[*llms.ContentResponse] {
		return intercept.Go(func() (*llms.ContentResponse, error) {
			return generate(ctx, m, req)
		})
	}).RequestView(messagesView)

	asyncCompletionCreate = intercept.NewAsync(func(ctx context.Context, m llms.Model, req CompletionRequest) <-chan intercept.Result[string] {
		return intercept.Go(func() (string, error) {
			return complete(ctx, m, req)
		})
	}).RequestView(completionView)
)

func init() {
	providers.Register(intercept.NewOwner(OwnerMessages).Define("Create", messagesCreate))
	providers.Register(intercept.NewOwner(OwnerCompletions).Define("Create", completionCreate))
	providers.Register(intercept.NewOwner(OwnerAsyncMessages).Define("Create", asyncMessagesCreate))
	providers.Register(intercept.NewOwner(OwnerAsyncCompletions).Define("Create", asyncCompletionCreate))
}
