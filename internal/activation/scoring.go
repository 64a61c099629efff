// Package activation scores which skills a discovery mechanism selected and
// aggregates those scores across a run.
package activation

import "strings"

// Accuracy levels for a single case.
const (
	ScoreMiss       = 0.0
	ScoreAcceptable = 0.5
	ScoreExact      = 1.0
)

// Score grades activated skills against the expected and acceptable sets:
// ScoreExact if any expected skill was activated, ScoreAcceptable if only an
// acceptable one was, ScoreMiss otherwise. Names compare case-insensitively.
func Score(activated, expected, acceptable []string) float64 {
	if len(activated) == 0 {
		return ScoreMiss
	}
	got := lowerSet(activated)
	if intersects(got, expected) {
		return ScoreExact
	}
	if intersects(got, acceptable) {
		return ScoreAcceptable
	}
	return ScoreMiss
}

// PrecisionAtK is 1 when any of the first k predictions is expected.
func PrecisionAtK(expected, predicted []string, k int) float64 {
	if len(predicted) == 0 || k <= 0 {
		return 0.0
	}
	top := lowerSet(predicted[:min(k, len(predicted))])
	if intersects(top, expected) {
		return 1.0
	}
	return 0.0
}

// Recall is the fraction of expected names that were predicted. It is 1 when
// nothing was expected.
func Recall(expected, predicted []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	got := lowerSet(predicted)
	hits := 0
	for _, e := range expected {
		if got[strings.ToLower(e)] {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

func intersects(set map[string]bool, names []string) bool {
	for _, n := range names {
		if set[strings.ToLower(n)] {
			return true
		}
	}
	return false
}
