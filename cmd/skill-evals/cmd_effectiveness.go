package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/effectiveness"
	"github.com/dotnet-skills/skill-evals/internal/judge"
	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/dotnet-skills/skill-evals/internal/rubric"
	"github.com/dotnet-skills/skill-evals/internal/statistics"
	"github.com/spf13/cobra"
)

// effectivenessOptions are shared by the commands that run the pairwise
// protocol.
type effectivenessOptions struct {
	evalOptions
	datasetPath string
	skillName   string
	confidence  float64
	seed        uint64
}

func (o *effectivenessOptions) bind(cmd *cobra.Command) {
	o.evalOptions.bind(cmd, true)
	cmd.Flags().StringVar(&o.datasetPath, "dataset", "", "Effectiveness dataset (.jsonl)")
	cmd.Flags().Float64Var(&o.confidence, "confidence", 0.95, "Bootstrap confidence level for the mean improvement (0 disables)")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "Seed for judge ordering and bootstrapping (0 picks one at random)")
}

func (o *effectivenessOptions) rng() *rand.Rand {
	if o.seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(o.seed, o.seed))
}

// newEffectivenessRunner wires generator, judge and rubrics for env.
func (o *effectivenessOptions) newEffectivenessRunner(env *runEnv, opts ...effectiveness.RunnerOption) *effectiveness.Runner {
	temperature := env.cfg.Temperature()
	gen := effectiveness.NewGenerator(env.client, env.model, temperature)

	j := judge.New(env.client, env.judgeModel, temperature)

	base := []effectiveness.RunnerOption{effectiveness.WithWorkers(env.cfg.Eval.Workers)}
	if rng := o.rng(); rng != nil {
		base = append(base, effectiveness.WithRandomSource(rng))
	}
	opts = append(base, opts...)
	r := effectiveness.NewRunner(gen, j, env.skills, rubric.NewCache(env.cfg.RubricsDir()), opts...)
	r.OnProgress(progressListener(env.out, o.verbose))
	return r
}

func (o *effectivenessOptions) improvementCI(rs *effectiveness.Results) *statistics.ConfidenceInterval {
	if o.confidence <= 0 || o.confidence >= 1 || rs.TotalCases() < 2 {
		return nil
	}
	ci := rs.ImprovementCI(o.confidence, o.rng())
	return &ci
}

func newEffectivenessCommand() *cobra.Command {
	var opts effectivenessOptions

	cmd := &cobra.Command{
		Use:   "eval-effectiveness",
		Short: "Measure whether skill guidance improves generated code",
		Long: `For each case the subject model answers the task twice, once without and once
with the skill's guidance. A judge model sees both answers in random order,
scores each 1-5 against the case rubric and picks a winner.

Reports win rate, mean scores and mean improvement, with a per-skill
breakdown when the dataset covers several skills.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEffectiveness(cmd, &opts)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.skillName, "skill", "", "Only run cases for this skill")

	return cmd
}

func runEffectiveness(cmd *cobra.Command, opts *effectivenessOptions) error {
	cases, err := loadCases(opts.datasetPath, dataset.LoadEffectiveness)
	if err != nil {
		return err
	}
	if opts.skillName != "" {
		if cases = dataset.FilterBySkill(cases, opts.skillName); len(cases) == 0 {
			return configErrorf("no cases for skill %q in %s", opts.skillName, opts.datasetPath)
		}
	}

	env, err := opts.setup(cmd, "sonnet")
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck

	fmt.Fprintf(env.out, "Running effectiveness eval (model=%s, judge=%s)\n", env.modelName, env.cfg.Models.JudgeModel) //nolint:errcheck
	if opts.skillName != "" {
		fmt.Fprintf(env.out, "Filtering to skill: %s\n", opts.skillName) //nolint:errcheck
	}
	fmt.Fprintln(env.out, datasetLine(opts.datasetPath, len(cases))) //nolint:errcheck

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := opts.newEffectivenessRunner(env).Run(ctx, cases)
	if err != nil {
		return err
	}

	ci := opts.improvementCI(results)
	reporting.PrintEffectiveness(env.out, "Skill Effectiveness Evaluation Results", results, ci)

	return opts.save(ctx, env, reporting.KindEffectiveness, func(a *reporting.Artifact) error {
		section, err := reporting.EffectivenessSection("effectiveness", results, ci)
		if err != nil {
			return err
		}
		a.Sections = append(a.Sections, section)
		return nil
	}, [2]string{"skill", opts.skillName})
}

// save builds an artifact with the judge model recorded and hands it to
// finish.
func (o *effectivenessOptions) save(ctx context.Context, env *runEnv, kind reporting.Kind, fill func(*reporting.Artifact) error, extras ...[2]string) error {
	a := reporting.NewArtifact(kind, env.model)
	a.JudgeModel = env.judgeModel
	if err := fill(a); err != nil {
		return err
	}
	return o.finish(ctx, env, a, extras...)
}
