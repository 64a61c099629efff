package main

import (
	"fmt"

	"github.com/dotnet-skills/skill-evals/internal/scaffold"
	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/spf13/cobra"
)

func newScaffoldCommand() *cobra.Command {
	var (
		skillsRepo  string
		variantsDir string
		prefix      string
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "scaffold-variants [skill ...]",
		Short: "Create placeholder condensed and progressive variants",
		Long: `Creates <variants-dir>/<skill>/condensed/SKILL.md and
<variants-dir>/<skill>/progressive/{SKILL.md,reference.md,examples.md} with
placeholder content for authors to fill in. Existing files are never
overwritten.

Without arguments, skills whose names start with --prefix are selected. On
an interactive terminal the selection can be adjusted before anything is
written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(skillsRepo)
			if err != nil {
				return err
			}
			if variantsDir == "" {
				variantsDir = cfg.VariantsDir()
			}

			names := args
			if len(names) == 0 {
				skills, err := loadSkills(cfg)
				if err != nil {
					return err
				}
				names = skill.Names(skill.FilterByPrefix(skills, prefix))
				if !yes && scaffold.IsInteractive(cmd.InOrStdin()) {
					names, err = scaffold.PickSkills(cmd.InOrStdin(), cmd.OutOrStdout(), skill.Names(skills), names)
					if err != nil {
						return err
					}
				}
			}
			if len(names) == 0 {
				return configErrorf("no skills selected (prefix %q)", prefix)
			}

			created, err := scaffold.Variants(variantsDir, names)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scaffolded variant directories for %d skills in %s\n", len(names), variantsDir) //nolint:errcheck
			for _, path := range created {
				fmt.Fprintf(out, "  - %s\n", path) //nolint:errcheck
			}
			if len(created) == 0 {
				fmt.Fprintln(out, "All variant files already exist; nothing written") //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&skillsRepo, "skills-repo", "", "Path to the dotnet-skills repository")
	cmd.Flags().StringVar(&variantsDir, "variants-dir", "", "Directory to create variants in (default: datasets/variants)")
	cmd.Flags().StringVar(&prefix, "prefix", scaffold.DefaultPrefix, "Select skills with this name prefix when none are given")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the interactive picker")

	return cmd
}
