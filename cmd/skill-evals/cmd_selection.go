package main

import (
	"fmt"
	"path/filepath"

	"github.com/dotnet-skills/skill-evals/internal/activation"
	"github.com/dotnet-skills/skill-evals/internal/catalog"
	"github.com/dotnet-skills/skill-evals/internal/dataset"
	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/spf13/cobra"
)

func newSelectionCommand() *cobra.Command {
	var (
		opts        evalOptions
		datasetPath string
		withIndex   bool
		indexPath   string
	)

	cmd := &cobra.Command{
		Use:   "eval-selection",
		Short: "Quiz the model on which skills a task needs",
		Long: `Shows the model the full skill catalog and asks it to name the skills a task
needs. Answers are graded against the expected and acceptable skills of each
case (exact 1.0, acceptable 0.5, miss 0.0).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelection(cmd, &opts, datasetPath, withIndex, indexPath)
		},
	}

	opts.bind(cmd, false)
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Activation dataset (.jsonl or .csv)")
	cmd.Flags().BoolVar(&withIndex, "with-index", false, "Also show the compressed routing index")
	cmd.Flags().StringVar(&indexPath, "index", "", "Markdown file holding the compressed index (default: <skills-repo>/README.md)")

	return cmd
}

func runSelection(cmd *cobra.Command, opts *evalOptions, datasetPath string, withIndex bool, indexPath string) error {
	cases, err := loadCases(datasetPath, dataset.LoadActivation)
	if err != nil {
		return err
	}

	env, err := opts.setup(cmd, "haiku")
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck

	var index string
	if withIndex {
		if indexPath == "" {
			indexPath = filepath.Join(env.cfg.Paths.SkillsRepo, "README.md")
		}
		if index, err = catalog.LoadCompressedIndex(indexPath); err != nil {
			return err
		}
	}

	fmt.Fprintf(env.out, "Running selection eval (model=%s, index=%t)\n", env.modelName, index != "") //nolint:errcheck
	fmt.Fprintln(env.out, datasetLine(datasetPath, len(cases)))                                       //nolint:errcheck

	quiz := activation.NewQuiz(env.client, env.model, env.cfg.Temperature(), catalog.FatIndex(env.skills), index)
	quiz.OnProgress(progressListener(env.out, opts.verbose))

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := quiz.Run(ctx, cases)
	if err != nil {
		return err
	}

	reporting.PrintSelection(env.out, results)

	a := reporting.NewArtifact(reporting.KindSelection, env.model)
	section, err := reporting.SelectionSection("selection", results)
	if err != nil {
		return err
	}
	a.Sections = append(a.Sections, section)

	indexFlag := ""
	if withIndex {
		indexFlag = "on"
	}
	return opts.finish(ctx, env, a, [2]string{"index", indexFlag})
}
