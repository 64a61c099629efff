package reporting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dotnet-skills/skill-evals/internal/effectiveness"
	"github.com/dotnet-skills/skill-evals/internal/judge"
	"github.com/dotnet-skills/skill-evals/internal/metrics"
	"github.com/dotnet-skills/skill-evals/internal/statistics"
)

// EffectivenessSection builds the section for one run. A non-nil ci adds
// its bounds to the summary.
func EffectivenessSection(name string, rs *effectiveness.Results, ci *statistics.ConfidenceInterval) (Section, error) {
	s, err := NewSection(name, rs.Summary(), rs.All())
	if err != nil {
		return Section{}, err
	}
	if ci != nil {
		s.Summary["improvement_ci_lower"] = metrics.Round4(ci.Lower)
		s.Summary["improvement_ci_upper"] = metrics.Round4(ci.Upper)
	}
	for _, r := range rs.All() {
		o := CaseOutcome{ID: r.CaseID, Group: r.SkillName}
		switch {
		case r.Failed:
			o.Error = r.Reasoning
		case r.Winner == judge.Baseline:
			o.Failure = fmt.Sprintf("baseline %d beat enhanced %d", r.BaselineScore, r.EnhancedScore)
		}
		s.Outcomes = append(s.Outcomes, o)
	}
	return s, nil
}

// PrintEffectiveness writes the summary, a per-skill breakdown when more
// than one skill ran, and the per-case scores.
func PrintEffectiveness(w io.Writer, title string, rs *effectiveness.Results, ci *statistics.ConfidenceInterval) {
	fmt.Fprintf(w, "\n%s\n", title) //nolint:errcheck

	s := rs.Summary()
	summary := NewTable("Summary", Column{Header: "Metric"}, Column{Header: "Value", Align: AlignRight})
	summary.AddRow("Total Cases", strconv.Itoa(s.TotalCases))
	summary.AddRow("Skill Wins", strconv.Itoa(s.SkillWins))
	summary.AddRow("Baseline Wins", strconv.Itoa(s.BaselineWins))
	summary.AddRow("Ties", strconv.Itoa(s.Ties))
	summary.AddRow("Win Rate", pct(rs.WinRate()))
	summary.AddRow("Mean Baseline Score", fmt.Sprintf("%.2f", rs.MeanBaselineScore()))
	summary.AddRow("Mean Enhanced Score", fmt.Sprintf("%.2f", rs.MeanEnhancedScore()))
	summary.AddRow("Mean Improvement", fmt.Sprintf("%+.2f", rs.MeanImprovement()))
	summary.AddRow("Improvement Std Dev", fmt.Sprintf("%.2f", rs.ImprovementStdDev()))
	if ci != nil && ci.NumBootstraps > 0 {
		sig := ""
		if statistics.IsSignificant(*ci) {
			sig = " *"
		}
		summary.AddRow(
			fmt.Sprintf("Improvement %.0f%% CI", ci.ConfidenceLevel*100),
			fmt.Sprintf("[%+.2f, %+.2f]%s", ci.Lower, ci.Upper, sig),
		)
	}
	summary.AddRow("Judge Agreement", fmt.Sprintf("%d/%d", s.JudgeAgreement, s.TotalCases-s.Failures))
	if s.Failures > 0 {
		summary.AddRow("Failures", strconv.Itoa(s.Failures))
	}
	summary.Render(w)

	if groups := rs.BySkill(); len(groups) > 1 {
		bySkill := NewTable("Per-Skill Breakdown",
			Column{Header: "Skill"},
			Column{Header: "Cases", Align: AlignRight},
			Column{Header: "Win Rate", Align: AlignRight},
			Column{Header: "Mean Improvement", Align: AlignRight},
		)
		for _, g := range groups {
			wins, total := 0, 0
			for _, r := range g.Results {
				if r.SkillHelped() {
					wins++
				}
				total += r.Improvement()
			}
			n := len(g.Results)
			bySkill.AddRow(
				g.SkillName,
				strconv.Itoa(n),
				pct(metrics.Ratio(wins, n)),
				fmt.Sprintf("%+.2f", metrics.Ratio(total, n)),
			)
		}
		bySkill.Render(w)
	}

	detail := NewTable("Per-Case Results",
		Column{Header: "ID"},
		Column{Header: "Skill"},
		Column{Header: "Baseline", Align: AlignRight},
		Column{Header: "Enhanced", Align: AlignRight},
		Column{Header: "Delta", Align: AlignRight},
		Column{Header: "Winner"},
	)
	for _, r := range rs.All() {
		winner := string(r.Winner)
		if r.Failed {
			winner = "failed (" + string(r.FailureStage) + ")"
		}
		detail.AddRow(
			r.CaseID,
			r.SkillName,
			strconv.Itoa(r.BaselineScore),
			strconv.Itoa(r.EnhancedScore),
			fmt.Sprintf("%+d", r.Improvement()),
			winner,
		)
	}
	detail.Render(w)
}

// SizeSections builds the full and truncated sections plus a deltas
// section.
func SizeSections(c *effectiveness.SizeComparison) ([]Section, error) {
	full, err := EffectivenessSection("full", c.Full, nil)
	if err != nil {
		return nil, err
	}
	truncated, err := EffectivenessSection("truncated", c.Truncated, nil)
	if err != nil {
		return nil, err
	}
	deltas := Section{
		Name: "delta",
		Summary: map[string]float64{
			"max_lines":                 float64(c.MaxLines),
			"win_rate_delta":            metrics.Round4(c.WinRateDelta),
			"mean_enhanced_score_delta": metrics.Round4(c.EnhancedScoreDelta),
			"mean_improvement_delta":    metrics.Round4(c.ImprovementDelta),
		},
	}
	return []Section{full, truncated, deltas}, nil
}

// PrintSizeComparison writes the side-by-side full vs truncated table.
func PrintSizeComparison(w io.Writer, c *effectiveness.SizeComparison) {
	t := NewTable("Size Impact Comparison",
		Column{Header: "Metric"},
		Column{Header: "Full", Align: AlignRight},
		Column{Header: fmt.Sprintf("Truncated (%d)", c.MaxLines), Align: AlignRight},
		Column{Header: "Difference"},
	)
	rows := []struct {
		label       string
		full, trunc float64
		delta       float64
	}{
		{"Win Rate", c.Full.WinRate(), c.Truncated.WinRate(), c.WinRateDelta},
		{"Mean Enhanced Score", c.Full.MeanEnhancedScore(), c.Truncated.MeanEnhancedScore(), c.EnhancedScoreDelta},
		{"Mean Improvement", c.Full.MeanImprovement(), c.Truncated.MeanImprovement(), c.ImprovementDelta},
	}
	for _, r := range rows {
		t.AddRow(r.label, fmt.Sprintf("%.2f", r.full), fmt.Sprintf("%.2f", r.trunc), describeDelta(r.delta, "full", "truncated"))
	}
	t.Render(w)
}

// VariantSections builds one section per strategy, in the given order.
func VariantSections(results []effectiveness.StrategyResults) ([]Section, error) {
	sections := make([]Section, 0, len(results))
	for _, sr := range results {
		s, err := EffectivenessSection(string(sr.Strategy), sr.Results, nil)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// PrintVariantRanking writes strategies best first.
func PrintVariantRanking(w io.Writer, results []effectiveness.StrategyResults) {
	t := NewTable("Variant Comparison Summary",
		Column{Header: "Rank", Align: AlignRight},
		Column{Header: "Strategy"},
		Column{Header: "References"},
		Column{Header: "Cases", Align: AlignRight},
		Column{Header: "Win Rate", Align: AlignRight},
		Column{Header: "Mean Enhanced", Align: AlignRight},
		Column{Header: "Mean Improvement", Align: AlignRight},
	)
	for i, sr := range effectiveness.Rank(results) {
		t.AddRow(
			strconv.Itoa(i+1),
			string(sr.Strategy),
			yesNo(sr.HasReferences),
			strconv.Itoa(sr.Results.TotalCases()),
			pct(sr.Results.WinRate()),
			fmt.Sprintf("%.2f", sr.Results.MeanEnhancedScore()),
			fmt.Sprintf("%+.2f", sr.Results.MeanImprovement()),
		)
	}
	t.Render(w)
}

func describeDelta(d float64, positive, negative string) string {
	switch {
	case d > 0:
		return fmt.Sprintf("%+.2f (%s better)", d, positive)
	case d < 0:
		return fmt.Sprintf("%+.2f (%s better)", d, negative)
	}
	return "0.00 (same)"
}
