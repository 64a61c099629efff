package activation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/mechanisms"
	"github.com/dotnet-skills/skill-evals/internal/progress"
	"golang.org/x/sync/errgroup"
)

// Runner evaluates every case against every mechanism.
type Runner struct {
	progress.Notifier

	mechanisms []mechanisms.Mechanism
	workers    int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers runs up to n cases of a mechanism at once. Results are still
// recorded in case order.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func NewRunner(ms []mechanisms.Mechanism, opts ...RunnerOption) *Runner {
	r := &Runner{mechanisms: ms, workers: 1}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run returns one Results per mechanism, in mechanism order. A failing case
// is recorded as a non-activation with zero accuracy; only cancellation
// aborts the run.
func (r *Runner) Run(ctx context.Context, cases []dataset.ActivationCase) ([]*Results, error) {
	out := make([]*Results, 0, len(r.mechanisms))
	for _, m := range r.mechanisms {
		res, err := r.runMechanism(ctx, m, cases)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Runner) runMechanism(ctx context.Context, m mechanisms.Mechanism, cases []dataset.ActivationCase) (*Results, error) {
	r.Notify(progress.Event{Type: progress.EventRunStart, Run: m.Name(), Total: len(cases)})

	recorded := make([]Result, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recorded[i] = r.runCase(gctx, m, c, i+1, len(cases))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s mechanism: %w", m.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := NewResults(m.Name())
	for _, res := range recorded {
		results.Record(res)
	}

	r.Notify(progress.Event{Type: progress.EventRunComplete, Run: m.Name(), Total: len(cases)})
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, m mechanisms.Mechanism, c dataset.ActivationCase, num, total int) Result {
	r.Notify(progress.Event{Type: progress.EventCaseStart, Run: m.Name(), CaseID: c.ID, Num: num, Total: total})

	res := Result{
		CaseID:           c.ID,
		Mechanism:        m.Name(),
		ShouldActivate:   c.ShouldActivate,
		ActivatedSkills:  []string{},
		ExpectedSkills:   c.ExpectedSkills,
		AcceptableSkills: c.AcceptableSkills,
	}

	out, err := m.Run(ctx, c.UserPrompt)
	if err != nil {
		slog.Warn("Activation case failed", "case", c.ID, "mechanism", m.Name(), "error", err)
		res.ResponseText = "ERROR: " + err.Error()
		res.Error = err.Error()
		r.Notify(progress.Event{
			Type: progress.EventCaseFailed, Run: m.Name(), CaseID: c.ID, Num: num, Total: total,
			Details: map[string]any{"error": err.Error()},
		})
		return res
	}

	res.Activated = out.Activated
	res.ActivatedSkills = out.ActivatedSkills
	res.Accuracy = Score(out.ActivatedSkills, c.ExpectedSkills, c.AcceptableSkills)
	res.ResponseText = out.ResponseText
	res.PromptTokens = out.PromptTokens
	res.CompletionTokens = out.CompletionTokens

	r.Notify(progress.Event{
		Type: progress.EventCaseComplete, Run: m.Name(), CaseID: c.ID, Num: num, Total: total,
		Details: map[string]any{"activated": res.Activated, "skills": res.ActivatedSkills, "accuracy": res.Accuracy},
	})
	return res
}
