package openai

import (
	"context"
	"errors"
	"io"
	"iter"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/petal-labs/warehouse/intercept"
	"github.com/petal-labs/warehouse/providers"
)

// Owner names registered by this adapter.
const (
	OwnerChatCompletions      = "openai.chat.completions"
	OwnerCompletions          = "openai.completions"
	OwnerAsyncChatCompletions = "openai.async.chat.completions"
	OwnerAsyncCompletions     = "openai.async.completions"
)

var (
	chatCreate = intercept.NewSync(func(ctx context.Context, api API, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
		return api.CreateChatCompletion(ctx, req)
	})

	chatCreateStream = intercept.NewSync(func(ctx context.Context, api API, req goopenai.ChatCompletionRequest) (*goopenai.ChatCompletionStream, error) {
		return api.CreateChatCompletionStream(ctx, req)
	})

	chatStream = intercept.NewSeq(func(ctx context.Context, api API, req goopenai.ChatCompletionRequest) (iter.Seq2[goopenai.ChatCompletionStreamResponse, error], error) {
		s, err := api.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return nil, err
		}
		return recvSeq[goopenai.ChatCompletionStreamResponse](s), nil
	})

	completionCreate = intercept.NewSync(func(ctx context.Context, api API, req goopenai.CompletionRequest) (goopenai.CompletionResponse, error) {
		return api.CreateCompletion(ctx, req)
	})

	completionCreateStream = intercept.NewSync(func(ctx context.Context, api API, req goopenai.CompletionRequest) (*goopenai.CompletionStream, error) {
		return api.CreateCompletionStream(ctx, req)
	})

	asyncChatCreate = intercept.NewAsync(func(ctx context.Context, api API, req goopenai.ChatCompletionRequest) <-chan intercept.Result[goopenai.ChatCompletionResponse] {
		return intercept.Go(func() (goopenai.ChatCompletionResponse, error) {
			return api.CreateChatCompletion(ctx, req)
		})
	})

	asyncCompletionCreate = intercept.NewAsync(func(ctx context.Context, api API, req goopenai.CompletionRequest) <-chan intercept.Result[goopenai.CompletionResponse] {
		return intercept.Go(func() (goopenai.CompletionResponse, error) {
			return api.CreateCompletion(ctx, req)
		})
	})
)

func init() {
	providers.Register(intercept.NewOwner(OwnerChatCompletions).
		Define("Create", chatCreate).
		Define("CreateStream", chatCreateStream).
		Define("Stream", chatStream))

	providers.Register(intercept.NewOwner(OwnerCompletions).
		Define("Create", completionCreate).
		Define("CreateStream", completionCreateStream))

	providers.Register(intercept.NewOwner(OwnerAsyncChatCompletions).
		Define("Create", asyncChatCreate))

	providers.Register(intercept.NewOwner(OwnerAsyncCompletions).
		Define("Create", asyncCompletionCreate))
}

type receiver[T any] interface {
	Recv() (T, error)
}

// recvSeq turns a go-openai stream into a single-use sequence.
// io.EOF ends the sequence; any other error is yielded once.
func recvSeq[T any](s receiver[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer closeStream(s)
		for {
			v, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func closeStream(s any) {
	switch c := s.(type) {
	case io.Closer:
		_ = c.Close()
	case interface{ Close() }:
		c.Close()
	}
}
