package judge

import "fmt"

// FallbackScore is the mid-scale score both sides get when a case could not
// be judged.
const FallbackScore = 3

const (
	MinScore = 1
	MaxScore = 5
)

// Stage is where a case failed.
type Stage string

const (
	StageInput      Stage = "input"
	StageGeneration Stage = "generation"
	StageJudging    Stage = "judging"
)

// Outcome is either a *Judgment or a *Failure.
type Outcome interface {
	Resolve() Resolution
	isOutcome()
}

// Judgment is a successful, unswapped verdict. Winner is derived from the
// scores; JudgeWinner is the label the judge gave.
type Judgment struct {
	BaselineScore int
	EnhancedScore int
	Winner        Label
	JudgeWinner   Label
	Reasoning     string
	Order         Order
}

// Failure records why a case has no verdict. Order is set when the pair
// reached the judge.
type Failure struct {
	Stage Stage
	Err   error
	Order *Order
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (*Judgment) isOutcome() {}
func (*Failure) isOutcome()  {}

// Resolution is the flat view of an Outcome that gets recorded.
type Resolution struct {
	BaselineScore int
	EnhancedScore int
	Winner        Label
	JudgeWinner   Label
	Reasoning     string
	Failed        bool
	Stage         Stage
	// Order is nil when the pair never reached the judge.
	Order *Order
}

func (j *Judgment) Resolve() Resolution {
	return Resolution{
		BaselineScore: j.BaselineScore,
		EnhancedScore: j.EnhancedScore,
		Winner:        j.Winner,
		JudgeWinner:   j.JudgeWinner,
		Reasoning:     j.Reasoning,
		Order:         &j.Order,
	}
}

// Resolve substitutes FallbackScore for both sides and a tie, keeping the
// error text in the reasoning.
func (f *Failure) Resolve() Resolution {
	return Resolution{
		BaselineScore: FallbackScore,
		EnhancedScore: FallbackScore,
		Winner:        Tie,
		JudgeWinner:   Tie,
		Reasoning:     fmt.Sprintf("%s ERROR: %v", upper(f.Stage), f.Err),
		Failed:        true,
		Stage:         f.Stage,
		Order:         f.Order,
	}
}

func upper(s Stage) string {
	switch s {
	case StageJudging:
		return "JUDGE"
	case StageGeneration:
		return "GENERATION"
	default:
		return "INPUT"
	}
}
