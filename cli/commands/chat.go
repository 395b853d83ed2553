package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"github.com/petal-labs/warehouse/bootstrap"
	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/providers/anthropic"
	"github.com/petal-labs/warehouse/sink"
)

// DefaultOpenAIModel is the chat model used for --provider openai.
const DefaultOpenAIModel = "gpt-4o-mini"

const flushTimeout = 5 * time.Second

// callLog captures the records produced by chat in this process.
var callLog = sink.NewRecorder(0)

type chatResult struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Output   string        `json:"output"`
	Records  []core.Record `json:"records,omitempty"`
}

func (a *App) newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send an instrumented chat request",
		Long: `Send a chat request through an instrumented SDK adapter.

Instrumentation is installed for this process regardless of
LLM_WAREHOUSE_ENABLED, so the call is recorded and delivered to the
configured sink. API keys are read from OPENAI_API_KEY or ANTHROPIC_API_KEY.`,
		Example: `  warehouse chat --prompt "Hello"
  warehouse chat --provider anthropic --prompt "Hello" --stream
  warehouse chat --prompt "Hello" --show-record`,
		Args: cobra.NoArgs,
		RunE: a.runChat,
	}

	cmd.Flags().StringVar(&a.chatProvider, "provider", "openai", "SDK adapter (openai, anthropic)")
	cmd.Flags().StringVar(&a.chatModel, "model", "", "model (default depends on provider)")
	cmd.Flags().StringVar(&a.chatPrompt, "prompt", "", "user message (required)")
	cmd.Flags().StringVar(&a.chatSystem, "system", "", "system message")
	cmd.Flags().IntVar(&a.chatMaxTokens, "max-tokens", 0, "max tokens (0 = provider default)")
	cmd.Flags().BoolVar(&a.chatStream, "stream", false, "stream the response")
	cmd.Flags().BoolVar(&a.chatAsync, "async", false, "use the non-blocking API")
	cmd.Flags().BoolVar(&a.chatShow, "show-record", false, "print the recorded call")

	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *App) runChat(cmd *cobra.Command, args []string) error {
	if a.chatStream && a.chatAsync {
		err := errors.New("--stream and --async cannot be combined")
		a.reportError(a.stderr, "validation_error", err)
		return exitWithCode(ExitValidation, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bootstrap.Init(ctx,
		bootstrap.WithForce(),
		bootstrap.WithConfig(a.cfg),
		bootstrap.WithLogger(a.logger),
		bootstrap.WithSink(callLog),
	)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := bootstrap.Shutdown(flushCtx); err != nil {
			a.logger.Warn("flush records", "error", err)
		}
	}()
	callLog.Reset()

	var (
		res *chatResult
		err error
	)
	switch strings.ToLower(a.chatProvider) {
	case "openai":
		res, err = a.chatOpenAI(ctx)
	case "anthropic":
		res, err = a.chatAnthropic(ctx)
	default:
		err = fmt.Errorf("unknown provider %q (want openai or anthropic)", a.chatProvider)
		a.reportError(a.stderr, "validation_error", err)
		return exitWithCode(ExitValidation, err)
	}
	if err != nil {
		return a.handleChatError(err)
	}

	res.Records = callLog.Records()
	if a.jsonOutput {
		return writeJSON(a.stdout, res)
	}

	if !a.chatStream {
		fmt.Fprintln(a.stdout, res.Output)
	}
	if a.chatShow {
		for _, r := range res.Records {
			if err := writeJSON(a.stderr, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *App) chatOpenAI(ctx context.Context) (*chatResult, error) {
	client, err := a.newOpenAI()
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}

	model := a.chatModel
	if model == "" {
		model = DefaultOpenAIModel
	}
	req := goopenai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: a.chatMaxTokens,
	}
	if a.chatSystem != "" {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: a.chatSystem})
	}
	req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: a.chatPrompt})

	res := &chatResult{Provider: "openai", Model: model}
	switch {
	case a.chatStream:
		req.Stream = true
		seq, err := client.Chat.Completions.Stream(ctx, req)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for chunk, err := range seq {
			if err != nil {
				return nil, err
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			sb.WriteString(delta)
			if !a.jsonOutput {
				fmt.Fprint(a.stdout, delta)
			}
		}
		if !a.jsonOutput {
			fmt.Fprintln(a.stdout)
		}
		res.Output = sb.String()
	case a.chatAsync:
		r, ok := <-client.Async.Chat.Completions.Create(ctx, req)
		if !ok {
			return nil, ctx.Err()
		}
		if r.Err != nil {
			return nil, r.Err
		}
		res.Output = firstChoice(r.Value)
	default:
		resp, err := client.Chat.Completions.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		res.Output = firstChoice(resp)
	}
	return res, nil
}

func firstChoice(resp goopenai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func (a *App) chatAnthropic(ctx context.Context) (*chatResult, error) {
	model := a.chatModel
	if model == "" {
		model = anthropic.DefaultModel
	}
	client, err := a.newAnthropic(model)
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}

	var messages []llms.MessageContent
	if a.chatSystem != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, a.chatSystem))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, a.chatPrompt))

	var opts []llms.CallOption
	if a.chatMaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.chatMaxTokens))
	}
	if a.chatStream {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if !a.jsonOutput {
				_, err := a.stdout.Write(chunk)
				return err
			}
			return nil
		}))
	}

	res := &chatResult{Provider: "anthropic", Model: model}
	var resp *llms.ContentResponse
	if a.chatAsync {
		r, ok := <-client.Async.Messages.Create(ctx, messages, opts...)
		if !ok {
			return nil, ctx.Err()
		}
		resp, err = r.Value, r.Err
	} else {
		resp, err = client.Messages.Create(ctx, messages, opts...)
	}
	if err != nil {
		return nil, err
	}
	if a.chatStream && !a.jsonOutput {
		fmt.Fprintln(a.stdout)
	}
	if resp != nil && len(resp.Choices) > 0 {
		res.Output = resp.Choices[0].Content
	}
	return res, nil
}

func (a *App) handleChatError(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		a.reportError(a.stderr, "validation_error", err)
		return err
	}

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		a.reportError(a.stderr, "provider_error", err)
		return exitWithCode(ExitProvider, err)
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		a.reportError(a.stderr, "network_error", err)
		return exitWithCode(ExitNetwork, err)
	default:
		a.reportError(a.stderr, "provider_error", err)
		return exitWithCode(ExitProvider, err)
	}
}
