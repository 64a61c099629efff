package reporting

import (
	"fmt"
	"io"
)

// MetricDelta is one summary metric from two runs.
type MetricDelta struct {
	Section string  `json:"section"`
	Metric  string  `json:"metric"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
	Delta   float64 `json:"delta"`
}

// Compare lines up the summary metrics of every section present in both
// artifacts, in the order sections appear in after.
func Compare(before, after *Artifact) ([]MetricDelta, error) {
	if before.Kind != after.Kind {
		return nil, fmt.Errorf("%w: %s vs %s", ErrKindMismatch, before.Kind, after.Kind)
	}

	var out []MetricDelta
	for i := range after.Sections {
		a := &after.Sections[i]
		b := before.Section(a.Name)
		if b == nil {
			continue
		}
		for _, name := range a.MetricNames() {
			bv, ok := b.Summary[name]
			if !ok {
				continue
			}
			av := a.Summary[name]
			out = append(out, MetricDelta{
				Section: a.Name,
				Metric:  name,
				Before:  bv,
				After:   av,
				Delta:   av - bv,
			})
		}
	}
	return out, nil
}

// PrintCompare writes the deltas as a table.
func PrintCompare(w io.Writer, before, after *Artifact, deltas []MetricDelta) {
	fmt.Fprintf(w, "\nComparing %s runs\n  before: %s (%s)\n  after:  %s (%s)\n", //nolint:errcheck
		after.Kind, before.RunID, before.Model, after.RunID, after.Model)

	t := NewTable("",
		Column{Header: "Section"},
		Column{Header: "Metric"},
		Column{Header: "Before", Align: AlignRight},
		Column{Header: "After", Align: AlignRight},
		Column{Header: "Delta", Align: AlignRight},
	)
	for _, d := range deltas {
		t.AddRow(d.Section, d.Metric, formatMetric(d.Before), formatMetric(d.After), fmt.Sprintf("%+.4g", d.Delta))
	}
	if t.Len() == 0 {
		fmt.Fprintln(w, "\nNo sections in common.") //nolint:errcheck
		return
	}
	t.Render(w)
}

func formatMetric(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.4f", v)
}
