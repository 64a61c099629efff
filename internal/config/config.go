// Package config holds the settings every command is built from. Values
// come from built-in defaults, then a .skill-evals.yaml project file, then
// the environment (including a .env file), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/tokens"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = ".skill-evals.yaml"

// Default values for configuration. New() references them and no other
// code should duplicate them.
const (
	DefaultProvider    = "openrouter"
	DefaultModel       = "haiku" // subject model when neither a command nor the user picks one
	DefaultJudgeModel  = "sonnet"
	DefaultTemperature = 0.0
	DefaultBaseURL     = "https://openrouter.ai/api/v1"

	DefaultDatasetsDir = "datasets/"
	DefaultResultsDir  = "results/"
	DefaultCacheDir    = ".skill-evals-cache"

	DefaultLineLimit = 500
	DefaultWorkers   = 1
)

// Environment variables read by ApplyEnv.
const (
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvSkillsRepo    = "DOTNET_SKILLS_REPO"
	EnvLineLimit     = "SKILL_LINE_LIMIT"
	EnvProvider      = "SKILL_EVALS_PROVIDER"
)

// ErrInvalid marks configuration the user has to fix.
var ErrInvalid = errors.New("invalid configuration")

// builtinAliases maps short model names to provider model ids.
var builtinAliases = map[string]string{
	"haiku":  "anthropic/claude-haiku-4-5",
	"sonnet": "anthropic/claude-sonnet-4-5",
	"opus":   "anthropic/claude-opus-4.6",
}

// PathsConfig holds input and output locations.
type PathsConfig struct {
	SkillsRepo string `yaml:"skills_repo,omitempty"`
	Datasets   string `yaml:"datasets,omitempty"`
	Rubrics    string `yaml:"rubrics,omitempty"`
	Variants   string `yaml:"variants,omitempty"`
	Results    string `yaml:"results,omitempty"`
}

// ModelsConfig selects the provider and the subject and judge models.
type ModelsConfig struct {
	Provider    string            `yaml:"provider,omitempty"`
	Model       string            `yaml:"model,omitempty"`
	JudgeModel  string            `yaml:"judge_model,omitempty"`
	Temperature *float64          `yaml:"temperature,omitempty"`
	BaseURL     string            `yaml:"base_url,omitempty"`
	Aliases     map[string]string `yaml:"aliases,omitempty"`
}

// EvalConfig tunes how evaluations run.
type EvalConfig struct {
	LineLimit    int    `yaml:"line_limit,omitempty"`
	Workers      int    `yaml:"workers,omitempty"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
	// Tokenizer picks how skill tokens are counted: estimate or tiktoken.
	Tokenizer string `yaml:"tokenizer,omitempty"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// UploadConfig names the blob container results are copied to.
type UploadConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
}

// Keys are API credentials. They only come from the environment.
type Keys struct {
	OpenRouter string `yaml:"-"`
	Anthropic  string `yaml:"-"`
	OpenAI     string `yaml:"-"`
}

// Config is the top-level configuration.
type Config struct {
	Paths  PathsConfig  `yaml:"paths,omitempty"`
	Models ModelsConfig `yaml:"models,omitempty"`
	Eval   EvalConfig   `yaml:"eval,omitempty"`
	Cache  CacheConfig  `yaml:"cache,omitempty"`
	Upload UploadConfig `yaml:"upload,omitempty"`
	Keys   Keys         `yaml:"-"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Paths: PathsConfig{
			SkillsRepo: filepath.Join(home, "repositories", "dotnet-skills"),
			Datasets:   DefaultDatasetsDir,
			Results:    DefaultResultsDir,
		},
		Models: ModelsConfig{
			Provider:    DefaultProvider,
			JudgeModel:  DefaultJudgeModel,
			Temperature: floatPtr(DefaultTemperature),
		},
		Eval: EvalConfig{
			LineLimit: DefaultLineLimit,
			Workers:   DefaultWorkers,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load builds the configuration for a run started in startDir: defaults,
// then the project file, then .env and the process environment.
func Load(startDir string) (*Config, error) {
	cfg, err := LoadFile(startDir)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(filepath.Join(startDir, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile finds the project file by walking up from startDir (max 10
// levels) and merges it onto the defaults. No file means defaults.
func LoadFile(startDir string) (*Config, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// LoadDotEnv exports variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: reading %s: %v", ErrInvalid, path, err)
}

// ApplyEnv overlays environment variables using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOpenRouterKey); ok {
		c.Keys.OpenRouter = v
	}
	if v, ok := lookup(EnvAnthropicKey); ok {
		c.Keys.Anthropic = v
	}
	if v, ok := lookup(EnvOpenAIKey); ok {
		c.Keys.OpenAI = v
	}
	if v, ok := lookup(EnvSkillsRepo); ok && v != "" {
		c.Paths.SkillsRepo = v
	}
	if v, ok := lookup(EnvProvider); ok && v != "" {
		c.Models.Provider = v
	}
	if v, ok := lookup(EnvLineLimit); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s=%q is not a positive integer", ErrInvalid, EnvLineLimit, v)
		}
		c.Eval.LineLimit = n
	}
	return nil
}

// HasModel reports whether a subject model was configured. Commands pick
// their own default when it was not.
func (c *Config) HasModel() bool {
	return c.Models.Model != ""
}

// ResolveModel expands a model alias. Unknown names pass through.
func (c *Config) ResolveModel(name string) string {
	if id, ok := c.Models.Aliases[name]; ok {
		return id
	}
	if id, ok := builtinAliases[name]; ok {
		return id
	}
	return name
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	switch c.Models.Provider {
	case "openrouter":
		return c.Keys.OpenRouter
	case "anthropic":
		return c.Keys.Anthropic
	case "openai":
		return c.Keys.OpenAI
	}
	return ""
}

// BaseURL is the API endpoint for the configured provider. Empty means the
// provider's own default.
func (c *Config) BaseURL() string {
	if c.Models.BaseURL != "" {
		return c.Models.BaseURL
	}
	if c.Models.Provider == "openrouter" {
		return DefaultBaseURL
	}
	return ""
}

func (c *Config) Temperature() float64 {
	if c.Models.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Models.Temperature
}

func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled != nil && *c.Cache.Enabled
}

func (c *Config) ActivationDir() string {
	return filepath.Join(c.Paths.Datasets, "activation")
}

func (c *Config) EffectivenessDir() string {
	return filepath.Join(c.Paths.Datasets, "effectiveness")
}

func (c *Config) RubricsDir() string {
	if c.Paths.Rubrics != "" {
		return c.Paths.Rubrics
	}
	return filepath.Join(c.Paths.Datasets, "rubrics")
}

func (c *Config) VariantsDir() string {
	if c.Paths.Variants != "" {
		return c.Paths.Variants
	}
	return filepath.Join(c.Paths.Datasets, "variants")
}

// Validate reports settings no run can proceed with.
// TokenCounter returns the counter for the configured tokenizer.
func (c *Config) TokenCounter() (tokens.Counter, error) {
	counter, err := tokens.NewCounter(tokens.Tokenizer(c.Eval.Tokenizer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return counter, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Models.Model == "" {
		errs = append(errs, fmt.Errorf("%w: model is empty", ErrInvalid))
	}
	if t := c.Temperature(); t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("%w: temperature %v outside [0, 2]", ErrInvalid, t))
	}
	if c.Eval.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: workers must be at least 1", ErrInvalid))
	}
	if c.Eval.LineLimit < 1 {
		errs = append(errs, fmt.Errorf("%w: line limit must be at least 1", ErrInvalid))
	}
	if _, err := c.TokenCounter(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// findConfigFile walks up from dir looking for the project file (max 10
// levels). Returns os.ErrNotExist if none is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range 10 {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	// Paths
	if src.Paths.SkillsRepo != "" {
		dst.Paths.SkillsRepo = src.Paths.SkillsRepo
	}
	if src.Paths.Datasets != "" {
		dst.Paths.Datasets = src.Paths.Datasets
	}
	if src.Paths.Rubrics != "" {
		dst.Paths.Rubrics = src.Paths.Rubrics
	}
	if src.Paths.Variants != "" {
		dst.Paths.Variants = src.Paths.Variants
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	// Models
	if src.Models.Provider != "" {
		dst.Models.Provider = src.Models.Provider
	}
	if src.Models.Model != "" {
		dst.Models.Model = src.Models.Model
	}
	if src.Models.JudgeModel != "" {
		dst.Models.JudgeModel = src.Models.JudgeModel
	}
	if src.Models.Temperature != nil {
		dst.Models.Temperature = src.Models.Temperature
	}
	if src.Models.BaseURL != "" {
		dst.Models.BaseURL = src.Models.BaseURL
	}
	if len(src.Models.Aliases) > 0 {
		dst.Models.Aliases = src.Models.Aliases
	}

	// Eval
	if src.Eval.LineLimit != 0 {
		dst.Eval.LineLimit = src.Eval.LineLimit
	}
	if src.Eval.Workers != 0 {
		dst.Eval.Workers = src.Eval.Workers
	}
	if src.Eval.SystemPrompt != "" {
		dst.Eval.SystemPrompt = src.Eval.SystemPrompt
	}
	if src.Eval.Tokenizer != "" {
		dst.Eval.Tokenizer = src.Eval.Tokenizer
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Upload
	if src.Upload.AccountURL != "" {
		dst.Upload.AccountURL = src.Upload.AccountURL
	}
	if src.Upload.Container != "" {
		dst.Upload.Container = src.Upload.Container
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func floatPtr(f float64) *float64 {
	return &f
}
