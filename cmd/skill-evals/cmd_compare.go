package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/spf13/cobra"
)

func newCompareCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compare <before.json> <after.json>",
		Short: "Compare the summary metrics of two result artifacts",
		Long: `Loads two result artifacts of the same kind and prints, for every section
present in both, each summary metric with its change from before to after.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return configErrorf("unsupported format %q: must be table or json", format)
			}

			before, err := reporting.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}
			after, err := reporting.Load(args[1])
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[1], err)
			}

			deltas, err := reporting.Compare(before, after)
			if errors.Is(err, reporting.ErrKindMismatch) {
				return &ConfigError{Err: err}
			}
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(deltas)
			}
			reporting.PrintCompare(cmd.OutOrStdout(), before, after, deltas)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")

	return cmd
}
