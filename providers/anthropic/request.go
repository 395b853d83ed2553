package anthropic

import (
	"github.com/tmc/langchaingo/llms"
)

// MessagesRequest is the argument set of a messages call.
type MessagesRequest struct {
	Messages []llms.MessageContent
	Options  []llms.CallOption
}

// IsStream reports whether a streaming callback was supplied.
func (r MessagesRequest) IsStream() bool {
	return callOptions(r.Options).StreamingFunc != nil
}

// CompletionRequest is the argument set of a single-prompt call.
type CompletionRequest struct {
	Prompt  string
	Options []llms.CallOption
}

// IsStream reports whether a streaming callback was supplied.
func (r CompletionRequest) IsStream() bool {
	return callOptions(r.Options).StreamingFunc != nil
}

func callOptions(opts []llms.CallOption) llms.CallOptions {
	var co llms.CallOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	return co
}

// optionsView projects the call options that carry data. Callbacks and
// tool implementations are not recordable and are left out.
func optionsView(opts []llms.CallOption) map[string]any {
	co := callOptions(opts)
	view := map[string]any{}
	if co.Model != "" {
		view["model"] = co.Model
	}
	if co.MaxTokens != 0 {
		view["max_tokens"] = co.MaxTokens
	}
	if co.Temperature != 0 {
		view["temperature"] = co.Temperature
	}
	if co.TopP != 0 {
		view["top_p"] = co.TopP
	}
	if len(co.StopWords) > 0 {
		view["stop_words"] = co.StopWords
	}
	if co.StreamingFunc != nil {
		view["stream"] = true
	}
	return view
}

func messagesView(r MessagesRequest) any {
	view := optionsView(r.Options)
	msgs := make([]map[string]any, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, map[string]any{
			"role":  string(m.Role),
			"parts": partsView(m.Parts),
		})
	}
	view["messages"] = msgs
	return view
}

func completionView(r CompletionRequest) any {
	view := optionsView(r.Options)
	view["prompt"] = r.Prompt
	return view
}

func partsView(parts []llms.ContentPart) []any {
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case llms.TextContent:
			out = append(out, map[string]any{"type": "text", "text": p.Text})
		case llms.ImageURLContent:
			out = append(out, map[string]any{"type": "image_url", "url": p.URL})
		case llms.BinaryContent:
			out = append(out, map[string]any{"type": "binary", "mime_type": p.MIMEType, "size": len(p.Data)})
		default:
			out = append(out, p)
		}
	}
	return out
}
