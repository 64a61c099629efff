package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenRouterBaseURL is the default OpenAI-compatible endpoint.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint,
// OpenRouter by default.
type OpenAIClient struct {
	client *openai.Client
	retry  RetryConfig
}

func NewOpenAIClient(apiKey, baseURL string, retry RetryConfig) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), retry: retry}
}

func (c *OpenAIClient) Invoke(ctx context.Context, req *Request) (*Response, error) {
	params, err := toOpenAIRequest(req)
	if err != nil {
		return nil, err
	}

	var resp openai.ChatCompletionResponse
	err = withRetry(ctx, c.retry, "openai", isRetryableOpenAIError, func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, params)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion (%s): %w", req.Model, err)
	}
	return fromOpenAIResponse(resp)
}

func toOpenAIRequest(req *Request) (openai.ChatCompletionRequest, error) {
	params := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens(req),
		Temperature: float32(req.Temperature),
	}
	if req.JSON {
		params.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				return params, fmt.Errorf("encoding arguments for %s: %w", tc.Name, err)
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		params.Messages = append(params.Messages, msg)
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(params.Tools) > 0 {
		params.ToolChoice = "auto"
	}
	return params, nil
}

func fromOpenAIResponse(resp openai.ChatCompletionResponse) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	choice := resp.Choices[0]

	out := &Response{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := parseArguments(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool call %s: %w", tc.Function.Name, err)
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || isTransientStatus(reqErr.HTTPStatusCode)
	}
	return looksTransient(err)
}
