package mechanisms

import (
	"context"
	"fmt"

	"github.com/dotnet-skills/skill-evals/internal/detection"
	"github.com/dotnet-skills/skill-evals/internal/llm"
)

// IndexMechanism places a skill index in the system prompt and infers
// activation from the skill names the response mentions. The compressed
// and fat mechanisms differ only in the index they carry.
type IndexMechanism struct {
	name   string
	client llm.Client
	cfg    Config
	index  string
	names  []string
}

func NewIndexMechanism(name string, client llm.Client, cfg Config, index string, names []string) *IndexMechanism {
	return &IndexMechanism{name: name, client: client, cfg: cfg, index: index, names: names}
}

func (m *IndexMechanism) Name() string { return m.name }

// SystemPrompt is the base prompt with the index appended.
func (m *IndexMechanism) SystemPrompt() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.cfg.systemPrompt(), workspaceHeader, m.index)
}

func (m *IndexMechanism) Run(ctx context.Context, task string) (*Result, error) {
	resp, err := m.client.Invoke(ctx, m.cfg.request([]llm.Message{
		llm.SystemMessage(m.SystemPrompt()),
		llm.UserMessage(task),
	}))
	if err != nil {
		return nil, fmt.Errorf("%s mechanism: %w", m.name, err)
	}

	activated := detection.Detect(resp.Text, m.names)
	return &Result{
		Activated:        len(activated) > 0,
		ActivatedSkills:  activated,
		ResponseText:     resp.Text,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
