package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/dotnet-skills/skill-evals/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSkills = []string{"akka-net-testing-patterns", "akka-net-aspire", "csharp-concurrency-patterns"}

func TestEvalActivation_Mock(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	dir := t.TempDir()
	ds := filepath.Join(dir, "activation.jsonl")
	writeFile(t, ds, strings.Join([]string{
		`{"id": "a1", "user_prompt": "Write an Akka.NET TestKit test", "expected_skills": ["akka-net-testing-patterns"]}`,
		`{"id": "n1", "user_prompt": "What is 2 + 2?"}`,
	}, "\n"))
	out := filepath.Join(dir, "activation.json")
	junit := filepath.Join(dir, "junit.xml")

	stdout, err := runCLI(t, "eval-activation", "--mock",
		"--skills-repo", repo, "--dataset", ds, "--mechanism", "tool,fat",
		"-o", out, "--junit", junit)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Running activation eval (model=haiku)")
	assert.Contains(t, stdout, "Mechanisms: tool, fat")
	assert.Contains(t, stdout, "Results exported to "+out)

	a, err := reporting.Load(out)
	require.NoError(t, err)
	assert.Equal(t, reporting.KindActivation, a.Kind)
	assert.Equal(t, "anthropic/claude-haiku-4-5", a.Model)
	assert.Equal(t, "tool+fat", a.Params["mechanisms"])
	require.Len(t, a.Sections, 2)
	assert.Equal(t, "tool", a.Sections[0].Name)
	assert.Equal(t, 2.0, a.Sections[0].Summary["total_cases"])

	_, err = os.Stat(junit)
	require.NoError(t, err)
}

func TestEvalActivation_ClearCache(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	dir := t.TempDir()
	ds := filepath.Join(dir, "activation.jsonl")
	writeFile(t, ds, `{"id": "n1", "user_prompt": "What is 2 + 2?"}`)
	cacheDir := filepath.Join(dir, "cache")
	stale := filepath.Join(cacheDir, "stale.json")
	writeFile(t, stale, `{"text": "old"}`)

	stdout, err := runCLI(t, "eval-activation", "--mock", "--skills-repo", repo, "--dataset", ds,
		"--mechanism", "fat", "--cache-dir", cacheDir, "--clear-cache", "-o", filepath.Join(dir, "out.json"))
	require.NoError(t, err, stdout)
	_, err = os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "the run repopulates the cache")

	writeFile(t, filepath.Join(cacheDir, "keep", "notes.txt"), "mine")
	_, err = runCLI(t, "eval-activation", "--mock", "--skills-repo", repo, "--dataset", ds,
		"--mechanism", "fat", "--cache-dir", cacheDir, "--clear-cache", "-o", filepath.Join(dir, "out.json"))
	require.ErrorContains(t, err, "refusing to delete")
}

func TestEvalActivation_UnknownMechanism(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	ds := filepath.Join(t.TempDir(), "a.jsonl")
	writeFile(t, ds, `{"id": "a1", "user_prompt": "hi"}`)

	_, err := runCLI(t, "eval-activation", "--mock", "--skills-repo", repo, "--dataset", ds, "--mechanism", "telepathy")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestEvalActivation_MissingDataset(t *testing.T) {
	_, err := runCLI(t, "eval-activation", "--mock")
	require.ErrorContains(t, err, "--dataset is required")
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestEvalSelection_Mock(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	dir := t.TempDir()
	ds := filepath.Join(dir, "activation.csv")
	writeFile(t, ds, "id,user_prompt,expected_skills,acceptable_skills\nq1,Write a TestKit test,akka-net-testing-patterns,\n")
	out := filepath.Join(dir, "selection.json.gz")

	stdout, err := runCLI(t, "eval-selection", "--mock", "--skills-repo", repo, "--dataset", ds, "-o", out)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Exact Accuracy")

	a, err := reporting.Load(out)
	require.NoError(t, err)
	require.Len(t, a.Sections, 1)
	assert.Equal(t, 1.0, a.Sections[0].Summary["misses"])
}

func writeEffectivenessDataset(t *testing.T, dir string) string {
	t.Helper()
	ds := filepath.Join(dir, "effectiveness.jsonl")
	writeFile(t, ds, strings.Join([]string{
		`{"id": "e1", "skill_name": "akka-net-testing-patterns", "task": "Write a TestKit test"}`,
		`{"id": "e2", "skill_name": "csharp-concurrency-patterns", "task": "Use channels"}`,
		`{"id": "bad"}`,
	}, "\n"))
	return ds
}

func TestEvalEffectiveness_Mock(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	dir := t.TempDir()
	ds := writeEffectivenessDataset(t, dir)
	out := filepath.Join(dir, "eff.json")

	stdout, err := runCLI(t, "eval-effectiveness", "--mock", "--skills-repo", repo,
		"--dataset", ds, "--judge-model", "opus", "--workers", "2", "--seed", "7", "-o", out)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Running effectiveness eval (model=sonnet, judge=opus)")
	assert.Contains(t, stdout, "Dataset: "+ds+" (2 cases)")
	assert.Contains(t, stdout, "Per-Skill Breakdown")

	a, err := reporting.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-opus-4.6", a.JudgeModel)
	require.Len(t, a.Sections, 1)
	s := a.Sections[0]
	assert.Equal(t, 2.0, s.Summary["total_cases"])
	assert.Equal(t, 2.0, s.Summary["ties"])
	assert.Contains(t, s.Summary, "improvement_ci_lower")

	var cases []map[string]any
	require.NoError(t, json.Unmarshal(s.Cases, &cases))
	require.Len(t, cases, 2)
	assert.Equal(t, "e1", cases[0]["case_id"])
	assert.Equal(t, "tie", cases[0]["winner"])
}

func TestEvalEffectiveness_SkillFilterWithoutCases(t *testing.T) {
	ds := writeEffectivenessDataset(t, t.TempDir())
	_, err := runCLI(t, "eval-effectiveness", "--mock", "--dataset", ds, "--skill", "nope")
	require.ErrorContains(t, err, `no cases for skill "nope"`)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestEvalSize_Mock(t *testing.T) {
	repo := newSkillsRepo(t, testSkills, "akka-net-testing-patterns")
	dir := t.TempDir()
	ds := writeEffectivenessDataset(t, dir)
	out := filepath.Join(dir, "size.json")

	stdout, err := runCLI(t, "eval-size", "--mock", "--skills-repo", repo, "--dataset", ds,
		"--max-lines", "20", "--oversized-only", "-o", out)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Comparing: full content vs truncated to 20 lines")
	assert.Contains(t, stdout, "Dataset: "+ds+" (1 cases)")
	assert.Contains(t, stdout, "Size Impact Comparison")
	assert.Contains(t, stdout, "0.00 (same)")

	a, err := reporting.Load(out)
	require.NoError(t, err)
	assert.Equal(t, reporting.KindSizeImpact, a.Kind)
	assert.Equal(t, "20", a.Params["lines"])
	require.Len(t, a.Sections, 3)
	assert.Equal(t, 20.0, a.Sections[2].Summary["max_lines"])
}

func TestEvalVariants_Mock(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	dir := t.TempDir()
	ds := writeEffectivenessDataset(t, dir)
	variantsDir := filepath.Join(dir, "variants")
	writeFile(t, filepath.Join(variantsDir, "akka-net-testing-patterns", "condensed", "SKILL.md"),
		"---\nname: akka-net-testing-patterns\ndescription: short\n---\n\n# Short\n")
	out := filepath.Join(dir, "variants.json")

	stdout, err := runCLI(t, "eval-variants", "--mock", "--skills-repo", repo, "--dataset", ds,
		"--skill", "akka-net-testing-patterns", "--variants-dir", variantsDir, "-o", out)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Strategies: original, condensed")
	assert.Contains(t, stdout, "Variant Comparison Summary")

	a, err := reporting.Load(out)
	require.NoError(t, err)
	require.Len(t, a.Sections, 2)
	assert.Equal(t, "condensed", a.Sections[1].Name)

	var cases []map[string]any
	require.NoError(t, json.Unmarshal(a.Sections[1].Cases, &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, "e1-condensed", cases[0]["case_id"])
}

func TestListSkills(t *testing.T) {
	repo := newSkillsRepo(t, testSkills, "akka-net-aspire")

	stdout, err := runCLI(t, "list-skills", "--skills-repo", repo, "--prefix", "akka", "--max-lines", "20")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Skills (2)")
	assert.NotContains(t, stdout, "csharp-concurrency-patterns")
	assert.Contains(t, stdout, "1 of 2 skills exceed 20 lines")

	stdout, err = runCLI(t, "list-skills", "--skills-repo", repo, "--json")
	require.NoError(t, err)
	var infos []reporting.SkillInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 3)
	assert.Equal(t, "akka-net-aspire", infos[0].Name)
}

func TestListSkills_Tokenizer(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	writeFile(t, filepath.Join(repo, "skills", "akka-best-practices", "SKILL.md"),
		"---\nname: akka-net-best-practices\ndescription: Akka guidance\n---\n\n# Akka\n")

	stdout, err := runCLI(t, "list-skills", "--skills-repo", repo, "--json", "--tokenizer", "estimate")
	require.NoError(t, err)
	var infos []reporting.SkillInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 4)
	for _, info := range infos {
		raw, err := os.ReadFile(filepath.Join(repo, "skills", info.Directory, "SKILL.md"))
		require.NoError(t, err)
		assert.Equal(t, tokens.Estimate(string(raw)), info.Tokens, info.Name)
	}
	assert.Equal(t, "akka-net-best-practices", infos[0].Name)
	assert.Equal(t, "akka-best-practices", infos[0].Directory)

	_, err = runCLI(t, "list-skills", "--skills-repo", repo, "--tokenizer", "sentencepiece")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestListSkills_MissingRepo(t *testing.T) {
	_, err := runCLI(t, "list-skills", "--skills-repo", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestScaffoldVariants(t *testing.T) {
	repo := newSkillsRepo(t, testSkills)
	variantsDir := filepath.Join(t.TempDir(), "variants")

	stdout, err := runCLI(t, "scaffold-variants", "--skills-repo", repo, "--variants-dir", variantsDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scaffolded variant directories for 2 skills")

	for _, name := range []string{"akka-net-testing-patterns", "akka-net-aspire"} {
		for _, f := range []string{"condensed/SKILL.md", "progressive/SKILL.md", "progressive/reference.md", "progressive/examples.md"} {
			_, err := os.Stat(filepath.Join(variantsDir, name, f))
			require.NoError(t, err, f)
		}
	}
	_, err = os.Stat(filepath.Join(variantsDir, "csharp-concurrency-patterns"))
	require.ErrorIs(t, err, os.ErrNotExist)

	stdout, err = runCLI(t, "scaffold-variants", "--variants-dir", variantsDir, "akka-net-aspire")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing written")
}

func TestScaffoldVariants_RejectsTraversal(t *testing.T) {
	_, err := runCLI(t, "scaffold-variants", "--variants-dir", t.TempDir(), "../escape")
	require.ErrorContains(t, err, "invalid path characters")
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, kind reporting.Kind, winRate float64) string {
		a := reporting.NewArtifact(kind, "sonnet")
		a.Sections = []reporting.Section{{Name: "effectiveness", Summary: map[string]float64{"win_rate": winRate}}}
		path := filepath.Join(dir, name)
		require.NoError(t, reporting.WriteJSON(a, path))
		return path
	}
	before := write("before.json", reporting.KindEffectiveness, 0.25)
	after := write("after.json.gz", reporting.KindEffectiveness, 0.75)
	other := write("other.json", reporting.KindActivation, 0.5)

	stdout, err := runCLI(t, "compare", before, after)
	require.NoError(t, err)
	assert.Contains(t, stdout, "win_rate")
	assert.Contains(t, stdout, "+0.5")

	stdout, err = runCLI(t, "compare", "--format", "json", before, after)
	require.NoError(t, err)
	var deltas []reporting.MetricDelta
	require.NoError(t, json.Unmarshal([]byte(stdout), &deltas))
	require.Len(t, deltas, 1)
	assert.InDelta(t, 0.5, deltas[0].Delta, 1e-9)

	_, err = runCLI(t, "compare", before, other)
	require.ErrorIs(t, err, reporting.ErrKindMismatch)
	assert.Equal(t, ExitConfigError, exitCode(err))

	_, err = runCLI(t, "compare", "--format", "xml", before, after)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestUnknownFlagIsConfigError(t *testing.T) {
	_, err := runCLI(t, "list-skills", "--no-such-flag")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}
