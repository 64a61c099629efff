package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/dotnet-skills/skill-evals/internal/llm"
	"github.com/dotnet-skills/skill-evals/internal/llm/llmmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"pgregory.net/rapid"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func TestAssign(t *testing.T) {
	a, b, o := Assign("base", "enh", true)
	require.Equal(t, "base", a)
	require.Equal(t, "enh", b)
	require.True(t, o.BaselineFirst)

	a, b, o = Assign("base", "enh", false)
	require.Equal(t, "enh", a)
	require.Equal(t, "base", b)
	require.False(t, o.BaselineFirst)
}

func TestOrder_Winner(t *testing.T) {
	tests := []struct {
		baselineFirst bool
		positional    Position
		want          Label
	}{
		{true, PositionA, Baseline},
		{true, PositionB, Enhanced},
		{false, PositionA, Enhanced},
		{false, PositionB, Baseline},
		{true, PositionTie, Tie},
		{false, PositionTie, Tie},
	}
	for _, tc := range tests {
		t.Run(string(tc.positional), func(t *testing.T) {
			require.Equal(t, tc.want, Order{BaselineFirst: tc.baselineFirst}.Winner(tc.positional))
		})
	}
}

func TestAssignUnswap_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		baselineFirst := rapid.Bool().Draw(t, "baselineFirst")
		baseScore := rapid.IntRange(MinScore, MaxScore).Draw(t, "baseScore")
		enhScore := rapid.IntRange(MinScore, MaxScore).Draw(t, "enhScore")

		a, b, o := Assign("baseline", "enhanced", baselineFirst)
		scores := map[string]int{"baseline": baseScore, "enhanced": enhScore}

		gotBase, gotEnh := o.Unswap(scores[a], scores[b])
		if gotBase != baseScore || gotEnh != enhScore {
			t.Fatalf("unswap(%v) = (%d, %d), want (%d, %d)", o, gotBase, gotEnh, baseScore, enhScore)
		}

		// The label for whichever position holds the enhanced text is Enhanced.
		enhancedPos := PositionA
		if b == "enhanced" {
			enhancedPos = PositionB
		}
		if o.Winner(enhancedPos) != Enhanced {
			t.Fatalf("winner(%s) under %v is not enhanced", enhancedPos, o)
		}
	})
}

func TestDraw(t *testing.T) {
	require.True(t, Draw(fixedRandom(0.0)))
	require.True(t, Draw(fixedRandom(0.49)))
	require.False(t, Draw(fixedRandom(0.5)))
	require.False(t, Draw(fixedRandom(0.99)))
}

func TestWinnerFromScores(t *testing.T) {
	require.Equal(t, Enhanced, WinnerFromScores(2, 4))
	require.Equal(t, Baseline, WinnerFromScores(4, 2))
	require.Equal(t, Tie, WinnerFromScores(3, 3))
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    *Verdict
		wantErr bool
	}{
		{
			name: "plain",
			text: `{"winner": "B", "score_a": 2, "score_b": 5, "reasoning": "B uses TestKit"}`,
			want: &Verdict{Winner: PositionB, ScoreA: 2, ScoreB: 5, Reasoning: "B uses TestKit"},
		},
		{
			name: "fenced with string scores",
			text: "```json\n{\"winner\": \"tie\", \"score_a\": \"4\", \"score_b\": \"4\"}\n```",
			want: &Verdict{Winner: PositionTie, ScoreA: 4, ScoreB: 4},
		},
		{
			name: "missing scores fall back",
			text: `{"winner": "a"}`,
			want: &Verdict{Winner: PositionA, ScoreA: FallbackScore, ScoreB: FallbackScore},
		},
		{
			name: "out of range clamped",
			text: `{"winner": "Response A", "score_a": 9, "score_b": -1}`,
			want: &Verdict{Winner: PositionA, ScoreA: MaxScore, ScoreB: MinScore},
		},
		{name: "unknown winner", text: `{"winner": "C", "score_a": 1, "score_b": 2}`, wantErr: true},
		{name: "no json", text: "A is better", wantErr: true},
		{name: "bad score", text: `{"winner": "A", "score_a": "great"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVerdict(tc.text)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFailure_Resolve(t *testing.T) {
	f := &Failure{Stage: StageJudging, Err: errors.New("429 too many requests")}
	got := f.Resolve()
	require.Equal(t, FallbackScore, got.BaselineScore)
	require.Equal(t, FallbackScore, got.EnhancedScore)
	require.Equal(t, Tie, got.Winner)
	require.True(t, got.Failed)
	require.Equal(t, "JUDGE ERROR: 429 too many requests", got.Reasoning)
	require.Nil(t, got.Order)
	require.ErrorContains(t, f, "judging failed")
}

func TestJudge_Compare(t *testing.T) {
	verdict := &llm.Response{Text: `{"winner": "A", "score_a": 5, "score_b": 2, "reasoning": "A is idiomatic"}`}

	t.Run("baseline first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := llmmock.NewMockClient(ctrl)
		client.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *llm.Request) (*llm.Response, error) {
				require.Equal(t, "judge-model", req.Model)
				require.True(t, req.JSON)
				require.Equal(t, Prompt("task", "BASE", "ENH", "rubric"), req.Messages[1].Content)
				return verdict, nil
			})

		out := New(client, "judge-model", 0, WithRandomSource(fixedRandom(0.1))).
			Compare(t.Context(), "task", "BASE", "ENH", "rubric")
		j, ok := out.(*Judgment)
		require.True(t, ok)
		require.Equal(t, 5, j.BaselineScore)
		require.Equal(t, 2, j.EnhancedScore)
		require.Equal(t, Baseline, j.Winner)
		require.Equal(t, Baseline, j.JudgeWinner)
	})

	t.Run("enhanced first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := llmmock.NewMockClient(ctrl)
		client.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *llm.Request) (*llm.Response, error) {
				require.Equal(t, Prompt("task", "ENH", "BASE", "rubric"), req.Messages[1].Content)
				return verdict, nil
			})

		out := New(client, "judge-model", 0, WithRandomSource(fixedRandom(0.9))).
			Compare(t.Context(), "task", "BASE", "ENH", "rubric")
		res := out.Resolve()
		require.Equal(t, 2, res.BaselineScore)
		require.Equal(t, 5, res.EnhancedScore)
		require.Equal(t, Enhanced, res.Winner)
		require.False(t, res.Failed)
		require.Equal(t, &Order{BaselineFirst: false}, res.Order)
	})

	t.Run("caller fixes the order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := llmmock.NewMockClient(ctrl)
		client.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *llm.Request) (*llm.Response, error) {
				require.Equal(t, Prompt("task", "BASE", "ENH", "rubric"), req.Messages[1].Content)
				return verdict, nil
			})

		// The random source is ignored once the order is given.
		res := New(client, "m", 0, WithRandomSource(fixedRandom(0.9))).
			CompareInOrder(t.Context(), true, "task", "BASE", "ENH", "rubric").Resolve()
		require.Equal(t, 5, res.BaselineScore)
		require.Equal(t, &Order{BaselineFirst: true}, res.Order)
	})

	t.Run("judge disagrees with scores", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := llmmock.NewMockClient(ctrl)
		client.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(
			&llm.Response{Text: `{"winner": "tie", "score_a": 3, "score_b": 4}`}, nil)

		res := New(client, "m", 0, WithRandomSource(fixedRandom(0.1))).
			Compare(t.Context(), "t", "b", "e", "r").Resolve()
		require.Equal(t, Enhanced, res.Winner)
		require.Equal(t, Tie, res.JudgeWinner)
	})

	t.Run("call fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := llmmock.NewMockClient(ctrl)
		boom := errors.New("boom")
		client.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(nil, boom)

		out := New(client, "m", 0).Compare(t.Context(), "t", "b", "e", "r")
		f, ok := out.(*Failure)
		require.True(t, ok)
		require.Equal(t, StageJudging, f.Stage)
		require.ErrorIs(t, f, boom)
		require.NotNil(t, f.Resolve().Order)
	})

	t.Run("malformed reply", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := llmmock.NewMockClient(ctrl)
		client.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(&llm.Response{Text: "I prefer A."}, nil)

		res := New(client, "m", 0).Compare(t.Context(), "t", "b", "e", "r").Resolve()
		require.True(t, res.Failed)
		require.Contains(t, res.Reasoning, "malformed verdict")
	})
}
