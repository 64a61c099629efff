// Package effectiveness measures whether a skill's guidance improves
// generated code: each task is answered with and without the guidance and a
// judge model compares the pair.
package effectiveness

import (
	"math/rand/v2"
	"sync"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/judge"
	"github.com/dotnet-skills/skill-evals/internal/metrics"
	"github.com/dotnet-skills/skill-evals/internal/statistics"
)

// Result is one judged case. Winner follows the scores; JudgeWinner is the
// label the judge itself gave.
type Result struct {
	CaseID           string      `json:"case_id"`
	SkillName        string      `json:"skill_name"`
	Task             string      `json:"task"`
	BaselineScore    int         `json:"baseline_score"`
	EnhancedScore    int         `json:"enhanced_score"`
	Winner           judge.Label `json:"winner"`
	JudgeWinner      judge.Label `json:"judge_winner"`
	Reasoning        string      `json:"reasoning"`
	BaselineResponse string      `json:"baseline_response"`
	EnhancedResponse string      `json:"enhanced_response"`
	Failed           bool        `json:"failed,omitempty"`
	FailureStage     judge.Stage `json:"failure_stage,omitempty"`
	// BaselineFirst records which response the judge saw as A. It is nil
	// when the case was never judged.
	BaselineFirst *bool `json:"baseline_first,omitempty"`
}

// Improvement is positive when the skill helped.
func (r Result) Improvement() int {
	return r.EnhancedScore - r.BaselineScore
}

func (r Result) SkillHelped() bool {
	return r.EnhancedScore > r.BaselineScore
}

// Results is the append-only record of one run.
type Results struct {
	mu      sync.Mutex
	results []Result
}

func NewResults() *Results {
	return &Results{}
}

// NewResult resolves an outcome into the Result recorded for a case.
func NewResult(c dataset.EffectivenessCase, baseline, enhanced string, o judge.Outcome) Result {
	res := o.Resolve()
	var baselineFirst *bool
	if res.Order != nil {
		first := res.Order.BaselineFirst
		baselineFirst = &first
	}
	return Result{
		CaseID:           c.ID,
		SkillName:        c.SkillName,
		Task:             c.Task,
		BaselineScore:    res.BaselineScore,
		EnhancedScore:    res.EnhancedScore,
		Winner:           res.Winner,
		JudgeWinner:      res.JudgeWinner,
		Reasoning:        res.Reasoning,
		BaselineResponse: baseline,
		EnhancedResponse: enhanced,
		Failed:           res.Failed,
		FailureStage:     res.Stage,
		BaselineFirst:    baselineFirst,
	}
}

func (rs *Results) Record(r Result) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results = append(rs.results, r)
}

// All returns a copy of the recorded results in evaluation order.
func (rs *Results) All() []Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]Result, len(rs.results))
	copy(out, rs.results)
	return out
}

func (rs *Results) TotalCases() int {
	return len(rs.All())
}

// SkillWins counts cases where the enhanced score beat the baseline.
func (rs *Results) SkillWins() int {
	return rs.count(func(r Result) bool { return r.EnhancedScore > r.BaselineScore })
}

func (rs *Results) BaselineWins() int {
	return rs.count(func(r Result) bool { return r.EnhancedScore < r.BaselineScore })
}

func (rs *Results) Ties() int {
	return rs.count(func(r Result) bool { return r.EnhancedScore == r.BaselineScore })
}

func (rs *Results) Failures() int {
	return rs.count(func(r Result) bool { return r.Failed })
}

// JudgeAgreement counts judged cases where the judge's own label matches
// the one implied by its scores.
func (rs *Results) JudgeAgreement() int {
	return rs.count(func(r Result) bool { return !r.Failed && r.JudgeWinner == r.Winner })
}

// WinRate is the fraction of cases where the skill helped.
func (rs *Results) WinRate() float64 {
	return metrics.Ratio(rs.SkillWins(), rs.TotalCases())
}

func (rs *Results) MeanBaselineScore() float64 {
	return rs.mean(func(r Result) float64 { return float64(r.BaselineScore) })
}

func (rs *Results) MeanEnhancedScore() float64 {
	return rs.mean(func(r Result) float64 { return float64(r.EnhancedScore) })
}

func (rs *Results) MeanImprovement() float64 {
	return rs.mean(func(r Result) float64 { return float64(r.Improvement()) })
}

// ImprovementStdDev is the population standard deviation of the
// per-case improvement.
func (rs *Results) ImprovementStdDev() float64 {
	return metrics.StdDev(rs.values(func(r Result) float64 { return float64(r.Improvement()) }))
}

// ImprovementCI bootstraps a confidence interval for the mean improvement.
// A nil rng is seeded randomly.
func (rs *Results) ImprovementCI(level float64, rng *rand.Rand) statistics.ConfidenceInterval {
	values := rs.values(func(r Result) float64 { return float64(r.Improvement()) })
	return statistics.BootstrapCI(values, level, rng)
}

// SkillGroup is the results for one skill.
type SkillGroup struct {
	SkillName string
	Results   []Result
}

// BySkill groups results by skill, groups in first-seen order and results
// in evaluation order within each group.
func (rs *Results) BySkill() []SkillGroup {
	var groups []SkillGroup
	index := map[string]int{}
	for _, r := range rs.All() {
		i, ok := index[r.SkillName]
		if !ok {
			i = len(groups)
			index[r.SkillName] = i
			groups = append(groups, SkillGroup{SkillName: r.SkillName})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// Summary is the persisted aggregate for a run.
type Summary struct {
	TotalCases        int     `json:"total_cases"`
	SkillWins         int     `json:"skill_wins"`
	BaselineWins      int     `json:"baseline_wins"`
	Ties              int     `json:"ties"`
	Failures          int     `json:"failures"`
	JudgeAgreement    int     `json:"judge_agreement"`
	WinRate           float64 `json:"win_rate"`
	MeanBaselineScore float64 `json:"mean_baseline_score"`
	MeanEnhancedScore float64 `json:"mean_enhanced_score"`
	MeanImprovement   float64 `json:"mean_improvement"`
	ImprovementStdDev float64 `json:"improvement_stddev"`
}

func (rs *Results) Summary() Summary {
	return Summary{
		TotalCases:        rs.TotalCases(),
		SkillWins:         rs.SkillWins(),
		BaselineWins:      rs.BaselineWins(),
		Ties:              rs.Ties(),
		Failures:          rs.Failures(),
		JudgeAgreement:    rs.JudgeAgreement(),
		WinRate:           metrics.Round4(rs.WinRate()),
		MeanBaselineScore: metrics.Round4(rs.MeanBaselineScore()),
		MeanEnhancedScore: metrics.Round4(rs.MeanEnhancedScore()),
		MeanImprovement:   metrics.Round4(rs.MeanImprovement()),
		ImprovementStdDev: metrics.Round4(rs.ImprovementStdDev()),
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

func (rs *Results) mean(f func(Result) float64) float64 {
	return metrics.Mean(rs.values(f))
}

func (rs *Results) values(f func(Result) float64) []float64 {
	all := rs.All()
	values := make([]float64, len(all))
	for i, r := range all {
		values[i] = f(r)
	}
	return values
}
