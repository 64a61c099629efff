// Package mechanisms implements the ways a model can discover skills: a
// lookup tool, a compressed routing index, or the full catalog in the
// system prompt.
package mechanisms

import (
	"context"
	"errors"
	"fmt"

	"github.com/dotnet-skills/skill-evals/internal/catalog"
	"github.com/dotnet-skills/skill-evals/internal/llm"
	"github.com/dotnet-skills/skill-evals/internal/skill"
)

const (
	Tool       = "tool"
	Compressed = "compressed"
	Fat        = "fat"
)

// All lists every mechanism in evaluation order.
var All = []string{Tool, Compressed, Fat}

// ErrUnknownMechanism is returned by Build for names outside All.
var ErrUnknownMechanism = errors.New("unknown mechanism")

// DefaultSystemPrompt frames every subject-model call.
const DefaultSystemPrompt = "You are a .NET development assistant. You help developers write " +
	"high-quality C# and .NET code with working examples and clear " +
	"explanations. Focus on modern .NET practices (.NET 8+, C# 12+)."

const workspaceHeader = "The following development skills and resources are available in this workspace:"

// Result is what one mechanism run observed.
type Result struct {
	Activated        bool
	ActivatedSkills  []string
	ResponseText     string
	PromptTokens     int
	CompletionTokens int
}

// Mechanism runs one task and reports which skills the model reached for.
type Mechanism interface {
	Name() string
	Run(ctx context.Context, task string) (*Result, error)
}

// Config is shared by every mechanism.
type Config struct {
	Model        string
	Temperature  float64
	SystemPrompt string
	// MaxToolRounds bounds follow-up calls after tool use. Zero means
	// DefaultMaxToolRounds.
	MaxToolRounds int
}

func (c Config) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return DefaultSystemPrompt
}

func (c Config) request(messages []llm.Message) *llm.Request {
	return &llm.Request{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
	}
}

// Build constructs the named mechanisms in the order given.
func Build(names []string, client llm.Client, cfg Config, skills []*skill.Skill, compressedIndex string) ([]Mechanism, error) {
	out := make([]Mechanism, 0, len(names))
	for _, name := range names {
		switch name {
		case Tool:
			out = append(out, NewToolMechanism(client, cfg, skills))
		case Compressed:
			out = append(out, NewIndexMechanism(Compressed, client, cfg, compressedIndex, skill.Names(skills)))
		case Fat:
			out = append(out, NewIndexMechanism(Fat, client, cfg, catalog.FatIndex(skills), skill.Names(skills)))
		default:
			return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownMechanism, name, All)
		}
	}
	return out, nil
}
