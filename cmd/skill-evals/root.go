package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill-evals",
		Short: "Evaluate .NET coding-assistant skills",
		Long: `skill-evals measures how well a catalog of .NET skills works with an LLM.

It tests whether the model discovers the right skill for a task (activation
and selection), whether a skill's guidance improves generated code
(effectiveness, judged pairwise), how truncating a skill affects that, and
which authored variant of a skill performs best.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ConfigError{Err: err}
	})

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newActivationCommand())
	cmd.AddCommand(newSelectionCommand())
	cmd.AddCommand(newEffectivenessCommand())
	cmd.AddCommand(newSizeCommand())
	cmd.AddCommand(newVariantsCommand())
	cmd.AddCommand(newListSkillsCommand())
	cmd.AddCommand(newScaffoldCommand())
	cmd.AddCommand(newCompareCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
