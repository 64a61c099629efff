package activation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/llm"
	"github.com/dotnet-skills/skill-evals/internal/progress"
)

const quizSystemPrompt = `You are a .NET development assistant with access to specialized skills.
Given a user's development task, determine which skill(s) from the available
catalog should be activated to best assist with the task.

Select only skills that are directly relevant. Return skill names exactly as
they appear in the catalog, ordered by relevance. If no skill is relevant,
return an empty list.

Respond with a JSON object only:
{"selected_skills": ["skill-name"], "reasoning": "brief explanation"}`

// Quiz asks the model outright which skills a task needs.
type Quiz struct {
	progress.Notifier

	client      llm.Client
	model       string
	temperature float64
	catalog     string
	index       string
}

// NewQuiz builds a quiz over a catalog listing. A non-empty index is shown
// alongside it as a routing aid.
func NewQuiz(client llm.Client, model string, temperature float64, catalog, index string) *Quiz {
	return &Quiz{client: client, model: model, temperature: temperature, catalog: catalog, index: index}
}

// Prompt renders the user message for one task.
func (q *Quiz) Prompt(task string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available skills:\n%s\n\n", q.catalog)
	if q.index != "" {
		fmt.Fprintf(&b, "Compressed routing index:\n%s\n\n", q.index)
	}
	fmt.Fprintf(&b, "Task:\n%s", task)
	return b.String()
}

// Answer is the model's pick for one task.
type Answer struct {
	Selected  []string
	Reasoning string
	Usage     llm.Usage
}

// Ask runs the quiz for one task.
func (q *Quiz) Ask(ctx context.Context, task string) (*Answer, error) {
	resp, err := q.client.Invoke(ctx, &llm.Request{
		Model:       q.model,
		Temperature: q.temperature,
		JSON:        true,
		Messages: []llm.Message{
			llm.SystemMessage(quizSystemPrompt),
			llm.UserMessage(q.Prompt(task)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("selection quiz: %w", err)
	}

	ans, err := ParseAnswer(resp.Text)
	if err != nil {
		return &Answer{Selected: []string{}, Usage: resp.Usage}, err
	}
	ans.Usage = resp.Usage
	return ans, nil
}

// ParseAnswer decodes a quiz reply. selected_skills may be a list or a
// comma-joined string.
func ParseAnswer(text string) (*Answer, error) {
	obj, ok := llm.ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("selection quiz: no JSON object in reply %q", truncate(text, 80))
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("selection quiz: decoding reply: %w", err)
	}

	reasoning, _ := raw["reasoning"].(string)
	return &Answer{
		Selected:  llm.NormalizeSkillList(raw["selected_skills"]),
		Reasoning: reasoning,
	}, nil
}

// Run grades every case in order. Failed cases are graded as misses.
func (q *Quiz) Run(ctx context.Context, cases []dataset.ActivationCase) (*SelectionResults, error) {
	results := NewSelectionResults()
	q.Notify(progress.Event{Type: progress.EventRunStart, Run: "selection", Total: len(cases)})

	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		q.Notify(progress.Event{Type: progress.EventCaseStart, Run: "selection", CaseID: c.ID, Num: i + 1, Total: len(cases)})

		sc := SelectionCase{
			CaseID:           c.ID,
			ExpectedSkills:   c.ExpectedSkills,
			AcceptableSkills: c.AcceptableSkills,
			PredictedSkills:  []string{},
		}

		ans, err := q.Ask(ctx, c.UserPrompt)
		if ans != nil {
			sc.PredictedSkills = ans.Selected
			sc.Reasoning = ans.Reasoning
			sc.PromptTokens = ans.Usage.PromptTokens
			sc.CompletionTokens = ans.Usage.CompletionTokens
		}
		if err != nil {
			slog.Warn("Selection case failed", "case", c.ID, "error", err)
			sc.Error = err.Error()
		}

		sc = results.Record(sc)
		q.Notify(progress.Event{
			Type: progress.EventCaseComplete, Run: "selection", CaseID: c.ID, Num: i + 1, Total: len(cases),
			Details: map[string]any{"skills": sc.PredictedSkills, "accuracy": sc.Accuracy},
		})
	}

	q.Notify(progress.Event{Type: progress.EventRunComplete, Run: "selection", Total: len(cases)})
	return results, nil
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
