package effectiveness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dotnet-skills/skill-evals/internal/catalog"
	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/judge"
	"github.com/dotnet-skills/skill-evals/internal/progress"
	"github.com/dotnet-skills/skill-evals/internal/rubric"
	"github.com/dotnet-skills/skill-evals/internal/skill"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownSkill marks a case whose skill is not in the catalog.
var ErrUnknownSkill = errors.New("unknown skill")

// Comparer judges a baseline against an enhanced response shown in the
// given order.
type Comparer interface {
	CompareInOrder(ctx context.Context, baselineFirst bool, task, baseline, enhanced, rubric string) judge.Outcome
}

// Runner runs the baseline-versus-enhanced protocol over a set of cases.
type Runner struct {
	progress.Notifier

	gen        *Generator
	judge      Comparer
	skills     map[string]*skill.Skill
	rubrics    *rubric.Cache
	truncateAt int
	workers    int
	rng        judge.RandomSource
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTruncateAt cuts skill guidance to n lines. Zero keeps it whole.
func WithTruncateAt(n int) RunnerOption {
	return func(r *Runner) {
		r.truncateAt = n
	}
}

// WithWorkers evaluates up to n cases at once. Results are still recorded
// in case order.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRandomSource sets the coin for presentation order. Coins are drawn
// in case order before any case starts, so a seeded source gives the same
// orders at any worker count.
func WithRandomSource(rng judge.RandomSource) RunnerOption {
	return func(r *Runner) {
		if rng != nil {
			r.rng = rng
		}
	}
}

func NewRunner(gen *Generator, j Comparer, skills []*skill.Skill, rubrics *rubric.Cache, opts ...RunnerOption) *Runner {
	r := &Runner{
		gen:     gen,
		judge:   j,
		skills:  skill.ByName(skills),
		rubrics: rubrics,
		workers: 1,
		rng:     judge.DefaultRandom,
	}
	if r.rubrics == nil {
		r.rubrics = rubric.NewCache("")
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// guidanceFunc supplies the enhanced guidance for a case's skill.
type guidanceFunc func(s *skill.Skill) string

// Run evaluates every case with its skill's guidance. Each case records
// exactly one Result; failures become fallback results.
func (r *Runner) Run(ctx context.Context, cases []dataset.EffectivenessCase) (*Results, error) {
	return r.run(ctx, "effectiveness", cases, "", func(s *skill.Skill) string {
		return catalog.Context(s, r.truncateAt)
	})
}

func (r *Runner) run(ctx context.Context, label string, cases []dataset.EffectivenessCase, idSuffix string, guidance guidanceFunc) (*Results, error) {
	r.Notify(progress.Event{Type: progress.EventRunStart, Run: label, Total: len(cases)})

	baselineFirst := make([]bool, len(cases))
	for i := range cases {
		baselineFirst[i] = judge.Draw(r.rng)
	}

	recorded := make([]Result, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.ID += idSuffix
			recorded[i] = r.evaluate(gctx, label, c, guidance, baselineFirst[i], i+1, len(cases))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s run: %w", label, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := NewResults()
	for _, res := range recorded {
		results.Record(res)
	}

	r.Notify(progress.Event{Type: progress.EventRunComplete, Run: label, Total: len(cases)})
	return results, nil
}

func (r *Runner) evaluate(ctx context.Context, label string, c dataset.EffectivenessCase, guidance guidanceFunc, baselineFirst bool, num, total int) Result {
	r.Notify(progress.Event{Type: progress.EventCaseStart, Run: label, CaseID: c.ID, Num: num, Total: total})

	baseline, enhanced, outcome := r.compare(ctx, c, guidance, baselineFirst)

	res := NewResult(c, baseline, enhanced, outcome)

	event := progress.Event{
		Type: progress.EventCaseComplete, Run: label, CaseID: c.ID, Num: num, Total: total,
		Details: map[string]any{
			"baseline_score": res.BaselineScore,
			"enhanced_score": res.EnhancedScore,
			"winner":         string(res.Winner),
		},
	}
	if f, ok := outcome.(*judge.Failure); ok {
		slog.Warn("Effectiveness case failed", "case", c.ID, "stage", f.Stage, "error", f.Err)
		event.Type = progress.EventCaseFailed
		event.Details["error"] = f.Error()
	}
	r.Notify(event)
	return res
}

// compare produces both responses and the judge's outcome. A generation
// failure skips judging.
func (r *Runner) compare(ctx context.Context, c dataset.EffectivenessCase, guidance guidanceFunc, baselineFirst bool) (string, string, judge.Outcome) {
	s, ok := r.skills[c.SkillName]
	if !ok {
		return "", "", &judge.Failure{Stage: judge.StageInput, Err: fmt.Errorf("%w: %s", ErrUnknownSkill, c.SkillName)}
	}

	rubricText, err := r.rubrics.Formatted(c.RubricFile)
	if err != nil {
		return "", "", &judge.Failure{Stage: judge.StageInput, Err: err}
	}

	baseline, err := r.gen.Generate(ctx, "", c.Task)
	if err != nil {
		return "ERROR: " + err.Error(), "", &judge.Failure{Stage: judge.StageGeneration, Err: fmt.Errorf("baseline: %w", err)}
	}

	enhanced, err := r.gen.Generate(ctx, guidance(s), c.Task)
	if err != nil {
		return baseline, "ERROR: " + err.Error(), &judge.Failure{Stage: judge.StageGeneration, Err: fmt.Errorf("enhanced: %w", err)}
	}

	return baseline, enhanced, r.judge.CompareInOrder(ctx, baselineFirst, c.Task, baseline, enhanced, rubricText)
}
