package judge

import (
	"context"
	"fmt"

	"github.com/dotnet-skills/skill-evals/internal/llm"
)

const systemPrompt = `You are an expert .NET code reviewer. Compare two code responses to the
same task and judge which one is better according to the rubric.

Response A and Response B are presented in random order - judge purely on
quality, not position. Be specific about what makes one better.

Respond with a JSON object only:
{"winner": "A" | "B" | "tie", "score_a": 1-5, "score_b": 1-5, "reasoning": "..."}
Reference specific rubric criteria in the reasoning.`

// Judge compares two responses with a judge model.
type Judge struct {
	client      llm.Client
	model       string
	temperature float64
	rng         RandomSource
}

// Option configures a Judge.
type Option func(*Judge)

// WithRandomSource replaces the ordering coin, typically with a fixed one
// in tests.
func WithRandomSource(r RandomSource) Option {
	return func(j *Judge) {
		j.rng = r
	}
}

func New(client llm.Client, model string, temperature float64, opts ...Option) *Judge {
	j := &Judge{client: client, model: model, temperature: temperature, rng: DefaultRandom}
	for _, o := range opts {
		o(j)
	}
	return j
}

func (j *Judge) Model() string { return j.model }

// Prompt renders the user message for one positional pair.
func Prompt(task, responseA, responseB, rubric string) string {
	return fmt.Sprintf("Task:\n%s\n\nRubric:\n%s\n\nResponse A:\n%s\n\nResponse B:\n%s", task, rubric, responseA, responseB)
}

// Compare judges baseline against enhanced in an order drawn from the
// judge's random source. It never returns an error; a failed call or
// unreadable reply is a *Failure outcome.
func (j *Judge) Compare(ctx context.Context, task, baseline, enhanced, rubric string) Outcome {
	return j.CompareInOrder(ctx, Draw(j.rng), task, baseline, enhanced, rubric)
}

// CompareInOrder is Compare with the presentation order fixed by the caller.
func (j *Judge) CompareInOrder(ctx context.Context, baselineFirst bool, task, baseline, enhanced, rubric string) Outcome {
	a, b, order := Assign(baseline, enhanced, baselineFirst)

	resp, err := j.client.Invoke(ctx, &llm.Request{
		Model:       j.model,
		Temperature: j.temperature,
		JSON:        true,
		Messages: []llm.Message{
			llm.SystemMessage(systemPrompt),
			llm.UserMessage(Prompt(task, a, b, rubric)),
		},
	})
	if err != nil {
		return &Failure{Stage: StageJudging, Err: err, Order: &order}
	}

	v, err := ParseVerdict(resp.Text)
	if err != nil {
		return &Failure{Stage: StageJudging, Err: err, Order: &order}
	}

	baselineScore, enhancedScore := order.Unswap(v.ScoreA, v.ScoreB)
	return &Judgment{
		BaselineScore: baselineScore,
		EnhancedScore: enhancedScore,
		Winner:        WinnerFromScores(baselineScore, enhancedScore),
		JudgeWinner:   order.Winner(v.Winner),
		Reasoning:     v.Reasoning,
		Order:         order,
	}
}
