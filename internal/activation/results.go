package activation

import (
	"sync"

	"github.com/dotnet-skills/skill-evals/internal/metrics"
)

// Result is one test case run through one mechanism.
type Result struct {
	CaseID           string   `json:"case_id"`
	Mechanism        string   `json:"mechanism"`
	ShouldActivate   bool     `json:"should_activate"`
	Activated        bool     `json:"activated"`
	ActivatedSkills  []string `json:"activated_skills"`
	ExpectedSkills   []string `json:"expected_skills"`
	AcceptableSkills []string `json:"acceptable_skills"`
	Accuracy         float64  `json:"accuracy"`
	ResponseText     string   `json:"response_text"`
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	Error            string   `json:"error,omitempty"`
}

func (r Result) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Results is the append-only record of one mechanism's run.
type Results struct {
	Mechanism string

	mu        sync.Mutex
	results   []Result
	confusion *Confusion
}

func NewResults(mechanism string) *Results {
	return &Results{Mechanism: mechanism, confusion: NewConfusion()}
}

// Record appends r. Cases that expected a skill and activated a different
// one also feed the confusion table.
func (rs *Results) Record(r Result) {
	rs.mu.Lock()
	rs.results = append(rs.results, r)
	rs.mu.Unlock()

	if r.Activated && len(r.ExpectedSkills) > 0 {
		rs.confusion.Record(r.ExpectedSkills, r.ActivatedSkills)
	}
}

// All returns a copy of the recorded results in evaluation order.
func (rs *Results) All() []Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]Result, len(rs.results))
	copy(out, rs.results)
	return out
}

func (rs *Results) Confusion() *Confusion {
	return rs.confusion
}

func (rs *Results) TotalCases() int {
	return len(rs.All())
}

func (rs *Results) PositiveCases() int {
	return rs.count(func(r Result) bool { return r.ShouldActivate })
}

func (rs *Results) NegativeCases() int {
	return rs.count(func(r Result) bool { return !r.ShouldActivate })
}

// ActivationRate is the fraction of all cases where anything activated.
func (rs *Results) ActivationRate() float64 {
	return metrics.Ratio(rs.count(func(r Result) bool { return r.Activated }), rs.TotalCases())
}

// TruePositiveRate is the fraction of should-activate cases that activated.
func (rs *Results) TruePositiveRate() float64 {
	return metrics.Ratio(
		rs.count(func(r Result) bool { return r.ShouldActivate && r.Activated }),
		rs.PositiveCases(),
	)
}

// FalsePositiveRate is the fraction of should-not-activate cases that activated.
func (rs *Results) FalsePositiveRate() float64 {
	return metrics.Ratio(
		rs.count(func(r Result) bool { return !r.ShouldActivate && r.Activated }),
		rs.NegativeCases(),
	)
}

// AccuracyWhenActivated is the mean accuracy over cases that should have
// activated and did.
func (rs *Results) AccuracyWhenActivated() float64 {
	var scores []float64
	for _, r := range rs.All() {
		if r.ShouldActivate && r.Activated {
			scores = append(scores, r.Accuracy)
		}
	}
	return metrics.Mean(scores)
}

func (rs *Results) TotalPromptTokens() int {
	return rs.sum(func(r Result) int { return r.PromptTokens })
}

func (rs *Results) TotalCompletionTokens() int {
	return rs.sum(func(r Result) int { return r.CompletionTokens })
}

func (rs *Results) TotalTokens() int {
	return rs.sum(Result.TotalTokens)
}

func (rs *Results) MeanPromptTokens() float64 {
	return metrics.Ratio(rs.TotalPromptTokens(), rs.TotalCases())
}

func (rs *Results) MeanCompletionTokens() float64 {
	return metrics.Ratio(rs.TotalCompletionTokens(), rs.TotalCases())
}

func (rs *Results) MeanTotalTokens() float64 {
	return metrics.Ratio(rs.TotalTokens(), rs.TotalCases())
}

// Errors counts cases whose mechanism call failed.
func (rs *Results) Errors() int {
	return rs.count(func(r Result) bool { return r.Error != "" })
}

// Classification treats activation as a binary decision.
func (rs *Results) Classification() metrics.Classification {
	all := rs.All()
	decisions := make([]metrics.Decision, len(all))
	for i, r := range all {
		decisions[i] = metrics.Decision{ShouldActivate: r.ShouldActivate, Activated: r.Activated}
	}
	return metrics.Classify(decisions)
}

// Summary is the persisted aggregate for one mechanism.
type Summary struct {
	TotalCases            int     `json:"total_cases"`
	PositiveCases         int     `json:"positive_cases"`
	NegativeCases         int     `json:"negative_cases"`
	ActivationRate        float64 `json:"activation_rate"`
	TruePositiveRate      float64 `json:"true_positive_rate"`
	FalsePositiveRate     float64 `json:"false_positive_rate"`
	AccuracyWhenActivated float64 `json:"accuracy_when_activated"`
	Precision             float64 `json:"precision"`
	Recall                float64 `json:"recall"`
	F1                    float64 `json:"f1"`
	TotalPromptTokens     int     `json:"total_prompt_tokens"`
	TotalCompletionTokens int     `json:"total_completion_tokens"`
	MeanPromptTokens      float64 `json:"mean_prompt_tokens"`
	MeanCompletionTokens  float64 `json:"mean_completion_tokens"`
	MeanTotalTokens       float64 `json:"mean_total_tokens"`
	Errors                int     `json:"errors"`
}

func (rs *Results) Summary() Summary {
	c := rs.Classification()
	return Summary{
		TotalCases:            rs.TotalCases(),
		PositiveCases:         rs.PositiveCases(),
		NegativeCases:         rs.NegativeCases(),
		ActivationRate:        rs.ActivationRate(),
		TruePositiveRate:      rs.TruePositiveRate(),
		FalsePositiveRate:     rs.FalsePositiveRate(),
		AccuracyWhenActivated: rs.AccuracyWhenActivated(),
		Precision:             c.Precision,
		Recall:                c.Recall,
		F1:                    c.F1,
		TotalPromptTokens:     rs.TotalPromptTokens(),
		TotalCompletionTokens: rs.TotalCompletionTokens(),
		MeanPromptTokens:      rs.MeanPromptTokens(),
		MeanCompletionTokens:  rs.MeanCompletionTokens(),
		MeanTotalTokens:       rs.MeanTotalTokens(),
		Errors:                rs.Errors(),
	}
}

func (rs *Results) count(pred func(Result) bool) int {
	n := 0
	for _, r := range rs.All() {
		if pred(r) {
			n++
		}
	}
	return n
}

func (rs *Results) sum(f func(Result) int) int {
	n := 0
	for _, r := range rs.All() {
		n += f(r)
	}
	return n
}
