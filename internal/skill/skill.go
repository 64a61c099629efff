// skill parses SKILL.md files
package skill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/tokens"
	"gopkg.in/yaml.v3"
)

// Frontmatter holds parsed YAML frontmatter from SKILL.md.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Invocable   bool   `yaml:"invocable"`
}

// Skill is a named guidance document. Skills are immutable once loaded.
type Skill struct {
	Name        string
	Description string
	Invocable   bool

	// Content is the SKILL.md body after the frontmatter.
	Content string

	// Dir is the directory name, which can differ from Name.
	Dir  string
	Path string

	// Lines and Bytes measure the whole file, frontmatter included.
	Lines  int
	Bytes  int
	Tokens int
}

// parseFrontmatter splits YAML frontmatter (delimited by ---) from body.
func parseFrontmatter(content string) (Frontmatter, string, error) {
	var fm Frontmatter

	if !strings.HasPrefix(content, "---") {
		return fm, content, nil
	}

	rest := content[3:]
	if strings.HasPrefix(rest, "\r\n") {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}

	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return fm, content, errors.New("closing frontmatter delimiter not found")
	}

	yamlBlock := rest[:idx]
	body := rest[idx+4:] // skip \n---

	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return fm, content, fmt.Errorf("unmarshalling frontmatter: %w", err)
	}

	return fm, strings.TrimLeft(body, "\r\n"), nil
}

// Option configures how skills are loaded.
type Option func(*options)

type options struct {
	counter tokens.Counter
}

// WithCounter sets the counter used for Skill.Tokens. The default estimates
// from the byte length.
func WithCounter(c tokens.Counter) Option {
	return func(o *options) {
		if c != nil {
			o.counter = c
		}
	}
}

func newOptions(opts []Option) options {
	o := options{counter: tokens.NewEstimatingCounter()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parse builds a Skill from raw SKILL.md text. It does not check required
// fields; Load does.
func Parse(raw string, opts ...Option) (*Skill, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("SKILL.md is empty")
	}

	fm, body, err := parseFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}

	return &Skill{
		Name:        fm.Name,
		Description: fm.Description,
		Invocable:   fm.Invocable,
		Content:     body,
		Lines:       countLines(raw),
		Bytes:       len(raw),
		Tokens:      newOptions(opts).counter.Count(raw),
	}, nil
}

// Truncated returns the first maxLines lines of the body, line endings kept.
func (s *Skill) Truncated(maxLines int) string {
	return TruncateLines(s.Content, maxLines)
}

// IsOversized reports whether the file has more than limit lines.
func (s *Skill) IsOversized(limit int) bool {
	return s.Lines > limit
}

// KB is the file size in kilobytes.
func (s *Skill) KB() float64 {
	return float64(s.Bytes) / 1024
}

// TruncateLines keeps the first maxLines lines of text. A non-positive
// maxLines returns text unchanged.
func TruncateLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[:maxLines], "")
}

// countLines counts lines the way a line iterator would: a trailing newline
// does not start a new line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
