package main

import (
	"fmt"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/dotnet-skills/skill-evals/internal/variants"
	"github.com/spf13/cobra"
)

func newVariantsCommand() *cobra.Command {
	var (
		opts        effectivenessOptions
		variantsDir string
	)

	cmd := &cobra.Command{
		Use:   "eval-variants",
		Short: "Compare authored variants of one skill",
		Long: `Runs the effectiveness protocol once per variant of a skill: the original
SKILL.md plus any condensed or progressive variant found under the variants
directory (<variants-dir>/<skill>/<strategy>/SKILL.md). Strategies are ranked
by win rate, then mean improvement.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVariants(cmd, &opts, variantsDir)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.skillName, "skill", "", "Skill whose variants are compared (required)")
	cmd.Flags().StringVar(&variantsDir, "variants-dir", "", "Directory holding authored variants (default: datasets/variants)")
	_ = cmd.MarkFlagRequired("skill")

	return cmd
}

func runVariants(cmd *cobra.Command, opts *effectivenessOptions, variantsDir string) error {
	cases, err := loadCases(opts.datasetPath, dataset.LoadEffectiveness)
	if err != nil {
		return err
	}
	if cases = dataset.FilterBySkill(cases, opts.skillName); len(cases) == 0 {
		return configErrorf("no cases for skill %q in %s", opts.skillName, opts.datasetPath)
	}

	env, err := opts.setup(cmd, "sonnet")
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck

	s, ok := skill.ByName(env.skills)[opts.skillName]
	if !ok {
		return configErrorf("unknown skill %q", opts.skillName)
	}
	if variantsDir == "" {
		variantsDir = env.cfg.VariantsDir()
	}
	vs, err := variants.All(s, variantsDir)
	if err != nil {
		return err
	}

	strategies := make([]string, len(vs))
	for i, v := range vs {
		strategies[i] = string(v.Strategy)
	}
	fmt.Fprintf(env.out, "Running variant comparison (model=%s, skill=%s)\n", env.modelName, opts.skillName) //nolint:errcheck
	fmt.Fprintf(env.out, "Strategies: %s\n", strings.Join(strategies, ", "))                                 //nolint:errcheck
	if len(vs) == 1 {
		fmt.Fprintf(env.out, "No authored variants in %s; run scaffold-variants to create them\n", variantsDir) //nolint:errcheck
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := opts.newEffectivenessRunner(env).RunVariants(ctx, opts.skillName, vs, cases)
	if err != nil {
		return err
	}

	for _, sr := range results {
		reporting.PrintEffectiveness(env.out, fmt.Sprintf("--- Strategy: %s ---", sr.Strategy), sr.Results, opts.improvementCI(sr.Results))
	}
	reporting.PrintVariantRanking(env.out, results)

	return opts.save(ctx, env, reporting.KindVariants, func(a *reporting.Artifact) error {
		sections, err := reporting.VariantSections(results)
		a.Sections = sections
		return err
	}, [2]string{"skill", opts.skillName})
}
