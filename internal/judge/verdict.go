package judge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/llm"
)

// ErrMalformed is returned when the judge's reply cannot be read as a
// verdict.
var ErrMalformed = errors.New("malformed verdict")

// Verdict is the judge's positional answer.
type Verdict struct {
	Winner    Position
	ScoreA    int
	ScoreB    int
	Reasoning string
}

type rawVerdict struct {
	Winner    string `mapstructure:"winner"`
	ScoreA    int    `mapstructure:"score_a"`
	ScoreB    int    `mapstructure:"score_b"`
	Reasoning string `mapstructure:"reasoning"`
}

// ParseVerdict reads the judge's JSON reply. Scores may arrive as numbers
// or numeric strings; missing or zero scores become FallbackScore and the
// rest are clamped to [MinScore, MaxScore]. An unrecognized winner is
// ErrMalformed.
func ParseVerdict(text string) (*Verdict, error) {
	obj, ok := llm.ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformed)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var raw rawVerdict
	if err := llm.DecodeArguments(doc, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	winner, ok := parsePosition(raw.Winner)
	if !ok {
		return nil, fmt.Errorf("%w: winner %q", ErrMalformed, raw.Winner)
	}

	return &Verdict{
		Winner:    winner,
		ScoreA:    normalizeScore(raw.ScoreA),
		ScoreB:    normalizeScore(raw.ScoreB),
		Reasoning: raw.Reasoning,
	}, nil
}

func parsePosition(s string) (Position, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "RESPONSE ")
	switch s {
	case "A":
		return PositionA, true
	case "B":
		return PositionB, true
	case "TIE":
		return PositionTie, true
	}
	return "", false
}

func normalizeScore(n int) int {
	if n == 0 {
		return FallbackScore
	}
	return max(MinScore, min(MaxScore, n))
}
