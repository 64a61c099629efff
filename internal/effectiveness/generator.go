package effectiveness

import (
	"context"
	"fmt"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/llm"
)

const generationPrompt = "Complete a .NET development task. If skill guidance is provided, " +
	"follow its patterns and recommendations closely. Respond with the code solution."

// Generator asks the subject model to complete a task.
type Generator struct {
	client      llm.Client
	model       string
	temperature float64
}

func NewGenerator(client llm.Client, model string, temperature float64) *Generator {
	return &Generator{client: client, model: model, temperature: temperature}
}

func (g *Generator) Model() string { return g.model }

// GenerationPrompt renders the user message. Empty guidance produces the
// baseline prompt.
func GenerationPrompt(guidance, task string) string {
	if strings.TrimSpace(guidance) == "" {
		return "Task:\n" + task
	}
	return fmt.Sprintf("Skill guidance:\n%s\n\nTask:\n%s", guidance, task)
}

// Generate returns the model's answer to task with the given guidance.
func (g *Generator) Generate(ctx context.Context, guidance, task string) (string, error) {
	resp, err := g.client.Invoke(ctx, &llm.Request{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []llm.Message{
			llm.SystemMessage(generationPrompt),
			llm.UserMessage(GenerationPrompt(guidance, task)),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
