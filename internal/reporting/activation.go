package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/activation"
)

// TopConfusions is how many confusion pairs are printed; artifacts keep
// twice as many.
const TopConfusions = 10

// ActivationSections builds one section per mechanism.
func ActivationSections(results []*activation.Results) ([]Section, error) {
	sections := make([]Section, 0, len(results))
	for _, rs := range results {
		s, err := NewSection(rs.Mechanism, rs.Summary(), rs.All())
		if err != nil {
			return nil, err
		}
		if s.Confusions, err = json.Marshal(rs.Confusion().Top(2 * TopConfusions)); err != nil {
			return nil, fmt.Errorf("section %s: encoding confusions: %w", rs.Mechanism, err)
		}
		for _, r := range rs.All() {
			s.Outcomes = append(s.Outcomes, activationOutcome(r))
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func activationOutcome(r activation.Result) CaseOutcome {
	o := CaseOutcome{ID: r.CaseID, Group: r.Mechanism}
	switch {
	case r.Error != "":
		o.Error = r.Error
	case r.ShouldActivate && !r.Activated:
		o.Failure = fmt.Sprintf("expected %s, nothing activated", list(r.ExpectedSkills))
	case !r.ShouldActivate && r.Activated:
		o.Failure = fmt.Sprintf("activated %s on a negative case", list(r.ActivatedSkills))
	case r.ShouldActivate && r.Accuracy == 0:
		o.Failure = fmt.Sprintf("expected %s, activated %s", list(r.ExpectedSkills), list(r.ActivatedSkills))
	}
	return o
}

// PrintActivation writes the mechanism comparison, the top confusions per
// mechanism and, when verbose, every case.
func PrintActivation(w io.Writer, results []*activation.Results, verbose bool) {
	fmt.Fprintln(w, "\nSkill Activation Evaluation Results") //nolint:errcheck

	summary := NewTable("Summary",
		Column{Header: "Mechanism"},
		Column{Header: "Cases", Align: AlignRight},
		Column{Header: "Activation Rate", Align: AlignRight},
		Column{Header: "TPR", Align: AlignRight},
		Column{Header: "FPR", Align: AlignRight},
		Column{Header: "Accuracy", Align: AlignRight},
		Column{Header: "Precision", Align: AlignRight},
		Column{Header: "Recall", Align: AlignRight},
		Column{Header: "F1", Align: AlignRight},
		Column{Header: "Mean Tokens", Align: AlignRight},
		Column{Header: "Errors", Align: AlignRight},
	)
	for _, rs := range results {
		s := rs.Summary()
		summary.AddRow(
			rs.Mechanism,
			strconv.Itoa(s.TotalCases),
			pct(s.ActivationRate),
			pct(s.TruePositiveRate),
			pct(s.FalsePositiveRate),
			pct(s.AccuracyWhenActivated),
			pct(s.Precision),
			pct(s.Recall),
			pct(s.F1),
			fmt.Sprintf("%.0f", s.MeanTotalTokens),
			strconv.Itoa(s.Errors),
		)
	}
	summary.Render(w)

	for _, rs := range results {
		printConfusions(w, fmt.Sprintf("Top Confusion Pairs (%s)", rs.Mechanism), rs.Confusion().Top(TopConfusions))
	}

	if !verbose {
		return
	}
	detail := NewTable("Per-Case Results",
		Column{Header: "ID"},
		Column{Header: "Mechanism"},
		Column{Header: "Should"},
		Column{Header: "Activated"},
		Column{Header: "Accuracy", Align: AlignRight},
		Column{Header: "Expected", MaxWidth: 40},
		Column{Header: "Activated Skills", MaxWidth: 40},
	)
	for _, rs := range results {
		for _, r := range rs.All() {
			detail.AddRow(
				r.CaseID,
				r.Mechanism,
				yesNo(r.ShouldActivate),
				yesNo(r.Activated),
				fmt.Sprintf("%.1f", r.Accuracy),
				list(r.ExpectedSkills),
				list(r.ActivatedSkills),
			)
		}
	}
	detail.Render(w)
}

// SelectionSection builds the quiz section.
func SelectionSection(name string, sr *activation.SelectionResults) (Section, error) {
	s, err := NewSection(name, sr.Summary(), sr.Cases())
	if err != nil {
		return Section{}, err
	}
	if s.Confusions, err = json.Marshal(sr.Confusion().Top(2 * TopConfusions)); err != nil {
		return Section{}, fmt.Errorf("section %s: encoding confusions: %w", name, err)
	}
	for _, c := range sr.Cases() {
		o := CaseOutcome{ID: c.CaseID, Group: name}
		switch {
		case c.Error != "":
			o.Error = c.Error
		case c.Accuracy == 0:
			o.Failure = fmt.Sprintf("expected %s, predicted %s", list(c.ExpectedSkills), list(c.PredictedSkills))
		}
		s.Outcomes = append(s.Outcomes, o)
	}
	return s, nil
}

// PrintSelection writes the quiz summary, top confusions and per-case
// grades.
func PrintSelection(w io.Writer, sr *activation.SelectionResults) {
	fmt.Fprintln(w, "\nSkill Selection Evaluation Results") //nolint:errcheck

	s := sr.Summary()
	summary := NewTable("Summary", Column{Header: "Metric"}, Column{Header: "Value", Align: AlignRight})
	summary.AddRow("Total Cases", strconv.Itoa(s.TotalCases))
	summary.AddRow("Exact Matches", strconv.Itoa(s.ExactMatches))
	summary.AddRow("Acceptable Matches", strconv.Itoa(s.AcceptableMatches))
	summary.AddRow("Misses", strconv.Itoa(s.Misses))
	summary.AddRow("Accuracy (weighted)", pct(s.Accuracy))
	summary.AddRow("Exact Accuracy", pct(s.ExactAccuracy))
	summary.AddRow("Mean Precision@1", pct(s.MeanPrecisionAt1))
	summary.AddRow("Mean Recall", pct(s.MeanRecall))
	if s.Errors > 0 {
		summary.AddRow("Errors", strconv.Itoa(s.Errors))
	}
	summary.Render(w)

	printConfusions(w, "Top Confusion Pairs", sr.Confusion().Top(TopConfusions))

	detail := NewTable("Per-Case Results",
		Column{Header: "ID"},
		Column{Header: "Accuracy", Align: AlignRight},
		Column{Header: "Expected", MaxWidth: 40},
		Column{Header: "Predicted", MaxWidth: 40},
	)
	for _, c := range sr.Cases() {
		detail.AddRow(c.CaseID, fmt.Sprintf("%.1f", c.Accuracy), list(c.ExpectedSkills), list(c.PredictedSkills))
	}
	detail.Render(w)
}

func printConfusions(w io.Writer, title string, pairs []activation.ConfusionPair) {
	if len(pairs) == 0 {
		return
	}
	t := NewTable(title,
		Column{Header: "Expected"},
		Column{Header: "Predicted Instead"},
		Column{Header: "Count", Align: AlignRight},
	)
	for _, p := range pairs {
		t.AddRow(p.Expected, p.Predicted, strconv.Itoa(p.Count))
	}
	t.Render(w)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func list(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
