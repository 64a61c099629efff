package llm

import (
	"context"
	"fmt"

	"github.com/dotnet-skills/skill-evals/internal/tokens"
)

// dryRunVerdict satisfies both the judge and the selection parsers.
const dryRunVerdict = `{"winner": "tie", "score_a": 3, "score_b": 3, "selected_skills": [], "reasoning": "dry run"}`

// DryRunClient answers every request locally without calling a model.
type DryRunClient struct{}

func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

func (*DryRunClient) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prompt string
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			prompt = m.Content
		}
	}

	text := fmt.Sprintf("Mock response for: %s", prompt)
	if req.JSON {
		text = dryRunVerdict
	}

	return &Response{
		Text:         text,
		FinishReason: FinishStop,
		Model:        req.Model,
		Usage: Usage{
			PromptTokens:     tokens.Estimate(flattenPrompt(req)),
			CompletionTokens: tokens.Estimate(text),
		},
	}, nil
}
