package main

import (
	"fmt"
	"strconv"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/effectiveness"
	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/spf13/cobra"
)

func newSizeCommand() *cobra.Command {
	var (
		opts          effectivenessOptions
		maxLines      int
		oversizedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "eval-size",
		Short: "Measure how truncating a skill changes its effectiveness",
		Long: `Runs the effectiveness protocol twice over the same cases: once with the whole
skill as guidance and once with the skill cut to --max-lines. Differences are
reported as full minus truncated, so positive numbers mean the full skill did
better.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSize(cmd, &opts, maxLines, oversizedOnly)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.skillName, "skill", "", "Only run cases for this skill")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Line limit for the truncated run (default: SKILL_LINE_LIMIT or 500)")
	cmd.Flags().BoolVar(&oversizedOnly, "oversized-only", false, "Only run cases whose skill exceeds the line limit")

	return cmd
}

func runSize(cmd *cobra.Command, opts *effectivenessOptions, maxLines int, oversizedOnly bool) error {
	cases, err := loadCases(opts.datasetPath, dataset.LoadEffectiveness)
	if err != nil {
		return err
	}
	if opts.skillName != "" {
		cases = dataset.FilterBySkill(cases, opts.skillName)
	}

	env, err := opts.setup(cmd, "sonnet")
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck

	if maxLines <= 0 {
		maxLines = env.cfg.Eval.LineLimit
	}
	if oversizedOnly {
		cases = effectiveness.OversizedCases(cases, env.skills, maxLines)
	}
	if len(cases) == 0 {
		return configErrorf("no cases to run (skill=%q, oversized-only=%t)", opts.skillName, oversizedOnly)
	}

	label := opts.skillName
	if label == "" {
		label = "all skills"
	}
	fmt.Fprintf(env.out, "Running size impact eval (model=%s, skill=%s)\n", env.modelName, label) //nolint:errcheck
	fmt.Fprintf(env.out, "Comparing: full content vs truncated to %d lines\n", maxLines)          //nolint:errcheck
	fmt.Fprintln(env.out, datasetLine(opts.datasetPath, len(cases)))                              //nolint:errcheck

	ctx, cancel := signalContext(cmd)
	defer cancel()

	comparison, err := opts.newEffectivenessRunner(env).CompareSize(ctx, cases, maxLines)
	if err != nil {
		return err
	}

	reporting.PrintEffectiveness(env.out, "--- Full Content ---", comparison.Full, nil)
	reporting.PrintEffectiveness(env.out, fmt.Sprintf("--- Truncated to %d lines ---", maxLines), comparison.Truncated, nil)
	reporting.PrintSizeComparison(env.out, comparison)

	return opts.save(ctx, env, reporting.KindSizeImpact, func(a *reporting.Artifact) error {
		sections, err := reporting.SizeSections(comparison)
		a.Sections = sections
		return err
	}, [2]string{"skill", opts.skillName}, [2]string{"lines", strconv.Itoa(maxLines)})
}
