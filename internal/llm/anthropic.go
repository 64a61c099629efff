package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient calls the Anthropic Messages API directly.
type AnthropicClient struct {
	client anthropic.Client
	retry  RetryConfig
}

func NewAnthropicClient(apiKey, baseURL string, retry RetryConfig) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), retry: retry}
}

func (c *AnthropicClient) Invoke(ctx context.Context, req *Request) (*Response, error) {
	params, err := toAnthropicParams(req)
	if err != nil {
		return nil, err
	}

	var msg *anthropic.Message
	err = withRetry(ctx, c.retry, "anthropic", isRetryableAnthropicError, func() error {
		var callErr error
		msg, callErr = c.client.Messages.New(ctx, params)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("messages (%s): %w", req.Model, err)
	}
	return fromAnthropicMessage(msg), nil
}

// anthropicModel drops an OpenRouter-style vendor prefix.
func anthropicModel(model string) string {
	return strings.TrimPrefix(model, "anthropic/")
}

func toAnthropicParams(req *Request) (anthropic.MessageNewParams, error) {
	system, rest := splitSystem(req.Messages)
	if req.JSON {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(anthropicModel(req.Model)),
		MaxTokens:   int64(maxTokens(req)),
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	for _, m := range rest {
		switch m.Role {
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		case RoleTool:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		default:
			return params, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: t.Parameters["properties"]},
			},
		})
	}
	return params, nil
}

func fromAnthropicMessage(msg *anthropic.Message) *Response {
	out := &Response{
		Model: string(msg.Model),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if err := json.Unmarshal(variant.Input, &args); err != nil {
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: variant.ID, Name: variant.Name, Arguments: args})
		}
	}
	out.Text = text.String()

	switch string(msg.StopReason) {
	case "tool_use":
		out.FinishReason = FinishToolCalls
	case "max_tokens":
		out.FinishReason = FinishLength
	default:
		out.FinishReason = FinishStop
	}
	return out
}

func isRetryableAnthropicError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.StatusCode)
	}
	return looksTransient(err)
}
