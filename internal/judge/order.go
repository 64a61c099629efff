// Package judge compares a baseline and a skill-enhanced response with a
// second model. The two responses are shown in random order and the
// verdict is mapped back afterwards so the judge cannot favor a position.
package judge

import "math/rand/v2"

// Position is where a response was shown to the judge.
type Position string

const (
	PositionA   Position = "A"
	PositionB   Position = "B"
	PositionTie Position = "tie"
)

// Label names a response by what it is rather than where it was shown.
type Label string

const (
	Baseline Label = "baseline"
	Enhanced Label = "enhanced"
	Tie      Label = "tie"
)

// Order records which response was shown first.
type Order struct {
	BaselineFirst bool `json:"baseline_first"`
}

// Assign places the two responses into positions A and B.
func Assign(baseline, enhanced string, baselineFirst bool) (a, b string, o Order) {
	o = Order{BaselineFirst: baselineFirst}
	if baselineFirst {
		return baseline, enhanced, o
	}
	return enhanced, baseline, o
}

// Unswap maps positional scores back to baseline and enhanced.
func (o Order) Unswap(scoreA, scoreB int) (baseline, enhanced int) {
	if o.BaselineFirst {
		return scoreA, scoreB
	}
	return scoreB, scoreA
}

// Winner maps a positional verdict back to a label.
func (o Order) Winner(p Position) Label {
	switch p {
	case PositionA:
		if o.BaselineFirst {
			return Baseline
		}
		return Enhanced
	case PositionB:
		if o.BaselineFirst {
			return Enhanced
		}
		return Baseline
	default:
		return Tie
	}
}

// WinnerFromScores labels the higher-scoring side, or Tie when equal.
func WinnerFromScores(baseline, enhanced int) Label {
	switch {
	case enhanced > baseline:
		return Enhanced
	case baseline > enhanced:
		return Baseline
	default:
		return Tie
	}
}

// RandomSource supplies the coin flip for ordering.
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRandom draws from the process-wide generator.
var DefaultRandom RandomSource = globalRand{}

// Draw flips the coin: true means the baseline goes first.
func Draw(r RandomSource) bool {
	return r.Float64() < 0.5
}
