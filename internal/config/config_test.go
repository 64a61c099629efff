package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dotnet-skills/skill-evals/internal/tokens"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	require.Equal(t, "openrouter", cfg.Models.Provider)
	require.False(t, cfg.HasModel())
	require.Equal(t, "sonnet", cfg.Models.JudgeModel)
	require.Equal(t, 0.0, cfg.Temperature())
	require.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL())
	require.Equal(t, 500, cfg.Eval.LineLimit)
	require.Equal(t, 1, cfg.Eval.Workers)
	require.False(t, cfg.CacheEnabled())
	require.Equal(t, filepath.Join("datasets", "rubrics"), cfg.RubricsDir())
	require.Equal(t, filepath.Join("datasets", "variants"), cfg.VariantsDir())
	require.True(t, filepath.IsAbs(cfg.Paths.SkillsRepo) || cfg.Paths.SkillsRepo == filepath.Join("repositories", "dotnet-skills"))
	cfg.Models.Model = DefaultModel
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
paths:
  skills_repo: /src/dotnet-skills
  rubrics: my-rubrics
models:
  provider: anthropic
  model: sonnet
  judge_model: opus
  temperature: 0.3
  aliases:
    fast: anthropic/claude-haiku-4-5
eval:
  line_limit: 300
  workers: 4
  tokenizer: tiktoken
cache:
  enabled: true
`)

	cfg, err := LoadFile(dir)
	require.NoError(t, err)
	require.Equal(t, "/src/dotnet-skills", cfg.Paths.SkillsRepo)
	require.Equal(t, "my-rubrics", cfg.RubricsDir())
	require.Equal(t, DefaultDatasetsDir, cfg.Paths.Datasets)
	require.Equal(t, "anthropic", cfg.Models.Provider)
	require.Equal(t, "opus", cfg.Models.JudgeModel)
	require.Equal(t, 0.3, cfg.Temperature())
	require.Empty(t, cfg.BaseURL())
	require.Equal(t, 300, cfg.Eval.LineLimit)
	require.Equal(t, 4, cfg.Eval.Workers)
	counter, err := cfg.TokenCounter()
	require.NoError(t, err)
	require.IsType(t, &tokens.TiktokenCounter{}, counter)
	require.True(t, cfg.CacheEnabled())
	require.Equal(t, DefaultCacheDir, cfg.Cache.Dir)
	require.Equal(t, "anthropic/claude-haiku-4-5", cfg.ResolveModel("fast"))
}

func TestLoadFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, "models:\n  model: opus\n")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := LoadFile(nested)
	require.NoError(t, err)
	require.Equal(t, "opus", cfg.Models.Model)
}

func TestLoadFile_NoFile(t *testing.T) {
	cfg, err := LoadFile(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, New().Models, cfg.Models)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "models: [not, a, map]\n")

	_, err := LoadFile(dir)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvOpenRouterKey: "or-key",
		EnvAnthropicKey:  "ant-key",
		EnvSkillsRepo:    "/tmp/skills",
		EnvLineLimit:     "250",
	})))

	require.Equal(t, "or-key", cfg.APIKey())
	require.Equal(t, "/tmp/skills", cfg.Paths.SkillsRepo)
	require.Equal(t, 250, cfg.Eval.LineLimit)

	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{EnvProvider: "anthropic"})))
	require.Equal(t, "ant-key", cfg.APIKey())

	err := cfg.ApplyEnv(envMap(map[string]string{EnvLineLimit: "lots"}))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	t.Setenv("SKILL_EVALS_TEST_PRESET", "from-process")
	writeFile(t, dir, ".env", "SKILL_EVALS_TEST_FROM_FILE=from-file\nSKILL_EVALS_TEST_PRESET=from-file\n")
	t.Cleanup(func() { os.Unsetenv("SKILL_EVALS_TEST_FROM_FILE") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))
	require.Equal(t, "from-file", os.Getenv("SKILL_EVALS_TEST_FROM_FILE"))
	require.Equal(t, "from-process", os.Getenv("SKILL_EVALS_TEST_PRESET"))
}

func TestResolveModel(t *testing.T) {
	cfg := New()
	tests := map[string]string{
		"haiku":                "anthropic/claude-haiku-4-5",
		"sonnet":               "anthropic/claude-sonnet-4-5",
		"opus":                 "anthropic/claude-opus-4.6",
		"openai/gpt-4o":        "openai/gpt-4o",
		"anthropic/claude-x-1": "anthropic/claude-x-1",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, cfg.ResolveModel(in))
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.Models.Model = "haiku"
	cfg.Eval.Workers = 0
	hot := 3.0
	cfg.Models.Temperature = &hot

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorContains(t, err, "workers")
	require.ErrorContains(t, err, "temperature")

	cfg = New()
	cfg.Models.Model = "haiku"
	cfg.Eval.Tokenizer = "sentencepiece"
	err = cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorContains(t, err, "unknown tokenizer")
}
