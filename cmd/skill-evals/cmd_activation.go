package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/activation"
	"github.com/dotnet-skills/skill-evals/internal/catalog"
	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/mechanisms"
	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/spf13/cobra"
)

func newActivationCommand() *cobra.Command {
	var (
		opts        evalOptions
		datasetPath string
		mechs       []string
		indexPath   string
	)

	cmd := &cobra.Command{
		Use:   "eval-activation",
		Short: "Measure whether the model reaches for the right skill",
		Long: `Simulates a coding session where the model must decide on its own whether to
use the available skills. Each case is run once per discovery mechanism:

  tool        skills are offered through an invoke_skill tool
  compressed  the compressed routing index is placed in the system prompt
  fat         every skill name and description is placed in the system prompt

Reports activation rates, accuracy, precision/recall and token cost per
mechanism.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runActivation(cmd, &opts, datasetPath, mechs, indexPath)
		},
	}

	opts.bind(cmd, false)
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Activation dataset (.jsonl or .csv)")
	cmd.Flags().StringSliceVar(&mechs, "mechanism", mechanisms.All, "Discovery mechanisms to test")
	cmd.Flags().StringVar(&indexPath, "index", "", "Markdown file holding the compressed index (default: <skills-repo>/README.md)")

	return cmd
}

func runActivation(cmd *cobra.Command, opts *evalOptions, datasetPath string, mechs []string, indexPath string) error {
	cases, err := loadCases(datasetPath, dataset.LoadActivation)
	if err != nil {
		return err
	}

	env, err := opts.setup(cmd, "haiku")
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck

	if indexPath == "" {
		indexPath = filepath.Join(env.cfg.Paths.SkillsRepo, "README.md")
	}
	index, err := catalog.LoadCompressedIndex(indexPath)
	if err != nil {
		return err
	}

	ms, err := mechanisms.Build(mechs, env.client, mechanisms.Config{
		Model:        env.model,
		Temperature:  env.cfg.Temperature(),
		SystemPrompt: env.cfg.Eval.SystemPrompt,
	}, env.skills, index)
	if err != nil {
		return &ConfigError{Err: err}
	}

	fmt.Fprintf(env.out, "Running activation eval (model=%s)\n", env.modelName) //nolint:errcheck
	fmt.Fprintf(env.out, "Mechanisms: %s\n", strings.Join(mechs, ", "))         //nolint:errcheck
	fmt.Fprintln(env.out, datasetLine(datasetPath, len(cases)))                 //nolint:errcheck
	if index == "" && slices.Contains(mechs, mechanisms.Compressed) {
		fmt.Fprintf(env.out, "Warning: no compressed index found in %s\n", indexPath) //nolint:errcheck
	}

	runner := activation.NewRunner(ms, activation.WithWorkers(env.cfg.Eval.Workers))
	runner.OnProgress(progressListener(env.out, opts.verbose))

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}

	reporting.PrintActivation(env.out, results, opts.verbose)

	a := reporting.NewArtifact(reporting.KindActivation, env.model)
	if a.Sections, err = reporting.ActivationSections(results); err != nil {
		return err
	}
	return opts.finish(ctx, env, a, [2]string{"mechanisms", strings.Join(mechs, "+")})
}
