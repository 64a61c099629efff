package activation

import (
	"sync"

	"github.com/dotnet-skills/skill-evals/internal/metrics"
)

// SelectionCase is one graded answer from the skill-selection quiz.
type SelectionCase struct {
	CaseID           string   `json:"id"`
	ExpectedSkills   []string `json:"expected"`
	AcceptableSkills []string `json:"acceptable"`
	PredictedSkills  []string `json:"predicted"`
	Accuracy         float64  `json:"accuracy"`
	PrecisionAt1     float64  `json:"precision_at_1"`
	Recall           float64  `json:"recall"`
	Reasoning        string   `json:"reasoning"`
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	Error            string   `json:"error,omitempty"`
}

// SelectionResults aggregates the quiz: the model is asked to name the skills
// for a task and is graded per case.
type SelectionResults struct {
	mu        sync.Mutex
	cases     []SelectionCase
	confusion *Confusion
}

func NewSelectionResults() *SelectionResults {
	return &SelectionResults{confusion: NewConfusion()}
}

// Record grades predicted against the case and appends it. c.Accuracy,
// c.PrecisionAt1 and c.Recall are overwritten.
func (s *SelectionResults) Record(c SelectionCase) SelectionCase {
	c.Accuracy = Score(c.PredictedSkills, c.ExpectedSkills, c.AcceptableSkills)
	c.PrecisionAt1 = PrecisionAtK(c.ExpectedSkills, c.PredictedSkills, 1)
	c.Recall = Recall(c.ExpectedSkills, c.PredictedSkills)

	s.confusion.Record(c.ExpectedSkills, c.PredictedSkills)

	s.mu.Lock()
	s.cases = append(s.cases, c)
	s.mu.Unlock()
	return c
}

func (s *SelectionResults) Cases() []SelectionCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SelectionCase, len(s.cases))
	copy(out, s.cases)
	return out
}

func (s *SelectionResults) Confusion() *Confusion {
	return s.confusion
}

// SelectionSummary is the persisted aggregate for a quiz run.
type SelectionSummary struct {
	TotalCases        int     `json:"total_cases"`
	ExactMatches      int     `json:"exact_matches"`
	AcceptableMatches int     `json:"acceptable_matches"`
	Misses            int     `json:"misses"`
	Accuracy          float64 `json:"accuracy"`
	ExactAccuracy     float64 `json:"exact_accuracy"`
	MeanPrecisionAt1  float64 `json:"mean_precision_at_1"`
	MeanRecall        float64 `json:"mean_recall"`
	Errors            int     `json:"errors"`
}

func (s *SelectionResults) Summary() SelectionSummary {
	cases := s.Cases()
	var sum SelectionSummary
	var p1, rec []float64
	for _, c := range cases {
		switch c.Accuracy {
		case ScoreExact:
			sum.ExactMatches++
		case ScoreAcceptable:
			sum.AcceptableMatches++
		default:
			sum.Misses++
		}
		if c.Error != "" {
			sum.Errors++
		}
		p1 = append(p1, c.PrecisionAt1)
		rec = append(rec, c.Recall)
	}
	sum.TotalCases = len(cases)
	sum.Accuracy = metrics.SafeDivide(float64(sum.ExactMatches)+0.5*float64(sum.AcceptableMatches), float64(sum.TotalCases))
	sum.ExactAccuracy = metrics.Ratio(sum.ExactMatches, sum.TotalCases)
	sum.MeanPrecisionAt1 = metrics.Mean(p1)
	sum.MeanRecall = metrics.Mean(rec)
	return sum
}
