package effectiveness

import (
	"cmp"
	"context"
	"slices"

	"github.com/dotnet-skills/skill-evals/internal/catalog"
	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/dotnet-skills/skill-evals/internal/variants"
)

// StrategyResults is one variant's run.
type StrategyResults struct {
	Strategy variants.Strategy
	Results  *Results
	// HasReferences is set when the variant split content into reference
	// files.
	HasReferences bool
}

// RunVariants evaluates each variant of one skill against a fresh baseline.
// Only cases for skillName are used, and their ids get a "-{strategy}"
// suffix.
func (r *Runner) RunVariants(ctx context.Context, skillName string, vs []*variants.Variant, cases []dataset.EffectivenessCase) ([]StrategyResults, error) {
	cases = dataset.FilterBySkill(cases, skillName)

	out := make([]StrategyResults, 0, len(vs))
	for _, v := range vs {
		content := v.FullContext()
		res, err := r.run(ctx, string(v.Strategy), cases, "-"+string(v.Strategy), func(*skill.Skill) string {
			return content
		})
		if err != nil {
			return out, err
		}
		out = append(out, StrategyResults{Strategy: v.Strategy, Results: res, HasReferences: v.HasReferences()})
	}
	return out, nil
}

// Rank orders strategies by win rate, then mean improvement, both
// descending. Equal strategies keep their input order.
func Rank(in []StrategyResults) []StrategyResults {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b StrategyResults) int {
		if c := cmp.Compare(b.Results.WinRate(), a.Results.WinRate()); c != 0 {
			return c
		}
		return cmp.Compare(b.Results.MeanImprovement(), a.Results.MeanImprovement())
	})
	return out
}

// SizeComparison contrasts full guidance with guidance cut at MaxLines.
// Deltas are full minus truncated, so positive means the whole skill did
// better.
type SizeComparison struct {
	MaxLines           int
	Full               *Results
	Truncated          *Results
	WinRateDelta       float64
	EnhancedScoreDelta float64
	ImprovementDelta   float64
}

// CompareSize runs the protocol twice over the same cases: once with the
// whole skill and once truncated to maxLines.
func (r *Runner) CompareSize(ctx context.Context, cases []dataset.EffectivenessCase, maxLines int) (*SizeComparison, error) {
	full, err := r.run(ctx, "full", cases, "", func(s *skill.Skill) string {
		return catalog.Context(s, 0)
	})
	if err != nil {
		return nil, err
	}

	truncated, err := r.run(ctx, "truncated", cases, "", func(s *skill.Skill) string {
		return catalog.Context(s, maxLines)
	})
	if err != nil {
		return nil, err
	}

	return &SizeComparison{
		MaxLines:           maxLines,
		Full:               full,
		Truncated:          truncated,
		WinRateDelta:       full.WinRate() - truncated.WinRate(),
		EnhancedScoreDelta: full.MeanEnhancedScore() - truncated.MeanEnhancedScore(),
		ImprovementDelta:   full.MeanImprovement() - truncated.MeanImprovement(),
	}, nil
}

// OversizedCases keeps the cases whose skill exceeds limit lines.
func OversizedCases(cases []dataset.EffectivenessCase, skills []*skill.Skill, limit int) []dataset.EffectivenessCase {
	byName := skill.ByName(skills)
	var out []dataset.EffectivenessCase
	for _, c := range cases {
		if s, ok := byName[c.SkillName]; ok && s.IsOversized(limit) {
			out = append(out, c)
		}
	}
	return out
}
