// Package variants loads alternative authored forms of a skill so their
// effect on output quality can be compared side by side.
//
// Authored variants live under <variants-dir>/<skill-name>/<strategy>/ with a
// SKILL.md and, for progressive disclosure, extra reference files.
package variants

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/skill"
)

// Strategy names an authoring approach.
type Strategy string

const (
	Original    Strategy = "original"
	Condensed   Strategy = "condensed"
	Progressive Strategy = "progressive"
)

// Strategies lists every strategy in evaluation order.
var Strategies = []Strategy{Original, Condensed, Progressive}

// Authored are the strategies that come from the variants directory.
var Authored = []Strategy{Condensed, Progressive}

// ErrUnknownStrategy is returned for strategy names outside Strategies.
var ErrUnknownStrategy = errors.New("unknown variant strategy")

// Variant is one authored form of a skill. References maps a file name to
// its content.
type Variant struct {
	SkillName   string            `json:"skill_name"`
	Strategy    Strategy          `json:"strategy"`
	MainContent string            `json:"main_content"`
	References  map[string]string `json:"references,omitempty"`
}

// FullContext is everything a model would see if every file were loaded:
// the main content followed by each reference in file name order.
func (v *Variant) FullContext() string {
	parts := []string{v.MainContent}
	for _, name := range v.ReferenceNames() {
		parts = append(parts, fmt.Sprintf("\n\n---\n\n# Reference: %s\n\n%s", name, v.References[name]))
	}
	return strings.Join(parts, "\n")
}

// ReferenceNames returns the reference file names, sorted.
func (v *Variant) ReferenceNames() []string {
	names := make([]string, 0, len(v.References))
	for name := range v.References {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (v *Variant) HasReferences() bool {
	return len(v.References) > 0
}

// FromSkill wraps an unmodified skill as the original variant.
func FromSkill(s *skill.Skill) *Variant {
	return &Variant{
		SkillName:   s.Name,
		Strategy:    Original,
		MainContent: s.Content,
		References:  map[string]string{},
	}
}

// Load reads one authored variant. It returns nil and no error when the
// variant has not been authored.
func Load(variantsDir, skillName string, strategy Strategy) (*Variant, error) {
	if !slices.Contains(Authored, strategy) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	dir := filepath.Join(variantsDir, skillName, string(strategy))
	main, err := os.ReadFile(filepath.Join(dir, skill.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s variant of %s: %w", strategy, skillName, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	refs := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == skill.FileName || filepath.Ext(name) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading reference %s: %w", name, err)
		}
		refs[name] = string(data)
	}

	return &Variant{
		SkillName:   skillName,
		Strategy:    strategy,
		MainContent: string(main),
		References:  refs,
	}, nil
}

// All returns the original variant followed by whichever authored variants
// exist, in Strategies order.
func All(s *skill.Skill, variantsDir string) ([]*Variant, error) {
	out := []*Variant{FromSkill(s)}
	for _, strategy := range Authored {
		v, err := Load(variantsDir, s.Name, strategy)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}
