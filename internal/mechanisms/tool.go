package mechanisms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/llm"
	"github.com/dotnet-skills/skill-evals/internal/skill"
)

const (
	// InvokeSkillTool is the lookup tool offered to the model.
	InvokeSkillTool = "invoke_skill"

	// DefaultMaxToolRounds bounds follow-up calls after the first answer.
	DefaultMaxToolRounds = 3
)

type invokeSkillArgs struct {
	SkillName string `mapstructure:"skill_name"`
}

// ToolMechanism offers the model a lookup tool listing every skill. Each
// call counts as an activation and is answered with the skill's content.
type ToolMechanism struct {
	client llm.Client
	cfg    Config
	skills map[string]*skill.Skill
	names  []string
	tool   llm.Tool
}

func NewToolMechanism(client llm.Client, cfg Config, skills []*skill.Skill) *ToolMechanism {
	return &ToolMechanism{
		client: client,
		cfg:    cfg,
		skills: skill.ByName(skills),
		names:  skill.Names(skills),
		tool:   InvokeSkillDefinition(skills),
	}
}

// InvokeSkillDefinition describes the lookup tool, listing every skill as
// "  - name: description".
func InvokeSkillDefinition(skills []*skill.Skill) llm.Tool {
	lines := make([]string, 0, len(skills))
	for _, s := range skills {
		lines = append(lines, fmt.Sprintf("  - %s: %s", s.Name, s.Description))
	}

	return llm.Tool{
		Name: InvokeSkillTool,
		Description: "Look up a .NET development skill by exact name to get " +
			"detailed guidance and code patterns.\n\n" +
			"Available skills:\n" + strings.Join(lines, "\n"),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"skill_name": map[string]any{
					"type":        "string",
					"description": "The exact skill name to look up.",
				},
			},
			"required": []string{"skill_name"},
		},
	}
}

func (m *ToolMechanism) Name() string { return Tool }

func (m *ToolMechanism) maxRounds() int {
	if m.cfg.MaxToolRounds > 0 {
		return m.cfg.MaxToolRounds
	}
	return DefaultMaxToolRounds
}

func (m *ToolMechanism) Run(ctx context.Context, task string) (*Result, error) {
	messages := []llm.Message{
		llm.SystemMessage(m.cfg.systemPrompt()),
		llm.UserMessage(task),
	}

	var usage llm.Usage
	activated := []string{}

	resp, err := m.invoke(ctx, messages)
	if err != nil {
		return nil, err
	}
	usage = usage.Add(resp.Usage)

	for round := 0; len(resp.ToolCalls) > 0 && round < m.maxRounds(); round++ {
		messages = append(messages, resp.AssistantMessage())
		for _, call := range resp.ToolCalls {
			answer, name := m.answer(call)
			if name != "" {
				activated = append(activated, name)
			}
			messages = append(messages, llm.ToolResultMessage(call.ID, answer))
		}

		resp, err = m.invoke(ctx, messages)
		if err != nil {
			return nil, err
		}
		usage = usage.Add(resp.Usage)
	}

	return &Result{
		Activated:        len(activated) > 0,
		ActivatedSkills:  activated,
		ResponseText:     resp.Text,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}, nil
}

func (m *ToolMechanism) invoke(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	req := m.cfg.request(messages)
	req.Tools = []llm.Tool{m.tool}
	resp, err := m.client.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tool mechanism: %w", err)
	}
	return resp, nil
}

// answer builds the tool result for one call and returns the requested
// skill name, empty when the call was not a skill lookup.
func (m *ToolMechanism) answer(call llm.ToolCall) (string, string) {
	if call.Name != InvokeSkillTool {
		return fmt.Sprintf("Unknown tool: %s", call.Name), ""
	}

	var args invokeSkillArgs
	if err := llm.DecodeArguments(call.Arguments, &args); err != nil {
		slog.Warn("Undecodable invoke_skill arguments", "args", call.Arguments, "error", err)
	}

	if s, ok := m.skills[args.SkillName]; ok {
		return s.Content, args.SkillName
	}
	return fmt.Sprintf("Unknown skill: %s. Available: %s", args.SkillName, strings.Join(m.names, ", ")), args.SkillName
}
