package main

import (
	"encoding/json"

	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/spf13/cobra"
)

func newListSkillsCommand() *cobra.Command {
	var (
		skillsRepo string
		prefix     string
		tokenizer  string
		maxLines   int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list-skills",
		Short: "List the skills in the repository with their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(skillsRepo)
			if err != nil {
				return err
			}
			if tokenizer != "" {
				cfg.Eval.Tokenizer = tokenizer
			}
			skills, err := loadSkills(cfg)
			if err != nil {
				return err
			}
			if prefix != "" {
				skills = skill.FilterByPrefix(skills, prefix)
			}
			if maxLines <= 0 {
				maxLines = cfg.Eval.LineLimit
			}

			infos := reporting.SkillInfos(skills, maxLines)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			reporting.PrintSkills(cmd.OutOrStdout(), infos, maxLines)
			return nil
		},
	}

	cmd.Flags().StringVar(&skillsRepo, "skills-repo", "", "Path to the dotnet-skills repository")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list skills whose name starts with this prefix")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Line limit for the oversized flag (default: SKILL_LINE_LIMIT or 500)")
	cmd.Flags().StringVar(&tokenizer, "tokenizer", "", "Token counting: estimate (~4 chars per token) or tiktoken (cl100k_base)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}
