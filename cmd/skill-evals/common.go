package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dotnet-skills/skill-evals/internal/cache"
	"github.com/dotnet-skills/skill-evals/internal/config"
	"github.com/dotnet-skills/skill-evals/internal/llm"
	"github.com/dotnet-skills/skill-evals/internal/progress"
	"github.com/dotnet-skills/skill-evals/internal/reporting"
	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/spf13/cobra"
)

// evalOptions are the flags shared by every eval command. Empty or unset
// flags leave the configured value alone.
type evalOptions struct {
	provider     string
	model        string
	judgeModel   string
	skillsRepo   string
	output       string
	junitPath    string
	cacheDir     string
	systemPrompt string
	workers      int
	temperature  float64
	mock         bool
	clearCache   bool
	upload       bool
	verbose      bool
}

func (o *evalOptions) bind(cmd *cobra.Command, withJudge bool) {
	f := cmd.Flags()
	f.StringVar(&o.provider, "provider", "", "Model provider: openrouter, openai, anthropic, copilot or mock")
	f.StringVar(&o.model, "model", "", "Model alias (haiku, sonnet, opus) or provider model id")
	if withJudge {
		f.StringVar(&o.judgeModel, "judge-model", "", "Model that judges response pairs (default: sonnet)")
	}
	f.StringVar(&o.skillsRepo, "skills-repo", "", "Path to the dotnet-skills repository")
	f.StringVarP(&o.output, "output", "o", "", "Artifact path (default: results/<kind>/<timestamp>_<model>.json)")
	f.StringVar(&o.junitPath, "junit", "", "Also write per-case results as JUnit XML")
	f.StringVar(&o.cacheDir, "cache-dir", "", "Cache model responses in this directory")
	f.StringVar(&o.systemPrompt, "system-prompt", "", "File with the system prompt for the subject model")
	f.IntVar(&o.workers, "workers", 0, "Cases evaluated concurrently")
	f.Float64Var(&o.temperature, "temperature", 0, "Sampling temperature")
	f.BoolVar(&o.clearCache, "clear-cache", false, "Empty the response cache before running (enables caching)")
	f.BoolVar(&o.mock, "mock", false, "Answer every call locally without a model (same as --provider mock)")
	f.BoolVar(&o.upload, "upload", false, "Upload the artifact to the configured blob container")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Print every case as it completes")
}

// runEnv is everything an eval command needs once flags and config have
// been resolved.
type runEnv struct {
	cfg        *config.Config
	client     llm.Client
	skills     []*skill.Skill
	modelName  string
	model      string
	judgeModel string
	out        io.Writer
}

func (e *runEnv) Close() error {
	return llm.Close(e.client)
}

// loadConfig loads configuration for the working directory. A non-empty
// skillsRepo overrides the configured repository.
func loadConfig(skillsRepo string) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if skillsRepo != "" {
		cfg.Paths.SkillsRepo = skillsRepo
	}
	return cfg, nil
}

// loadSkills reads the catalog from the configured repository.
func loadSkills(cfg *config.Config) ([]*skill.Skill, error) {
	counter, err := cfg.TokenCounter()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	skills, err := skill.LoadRepo(cfg.Paths.SkillsRepo, skill.WithCounter(counter))
	if err != nil {
		return nil, configErrorf("loading skills from %s: %w", cfg.Paths.SkillsRepo, err)
	}
	if len(skills) == 0 {
		return nil, configErrorf("no skills found in %s", cfg.Paths.SkillsRepo)
	}
	return skills, nil
}

// resolveConfig layers flags over the loaded configuration.
func (o *evalOptions) resolveConfig(cmd *cobra.Command, defaultModel string) (*config.Config, error) {
	cfg, err := loadConfig(o.skillsRepo)
	if err != nil {
		return nil, err
	}

	if !cfg.HasModel() {
		cfg.Models.Model = defaultModel
	}
	if o.provider != "" {
		cfg.Models.Provider = o.provider
	}
	if o.mock {
		cfg.Models.Provider = llm.ProviderMock
	}
	if o.model != "" {
		cfg.Models.Model = o.model
	}
	if o.judgeModel != "" {
		cfg.Models.JudgeModel = o.judgeModel
	}
	if o.cacheDir != "" {
		enabled := true
		cfg.Cache.Enabled = &enabled
		cfg.Cache.Dir = o.cacheDir
	}
	if o.clearCache {
		enabled := true
		cfg.Cache.Enabled = &enabled
	}
	if o.workers > 0 {
		cfg.Eval.Workers = o.workers
	}
	if cmd.Flags().Changed("temperature") {
		t := o.temperature
		cfg.Models.Temperature = &t
	}
	if o.systemPrompt != "" {
		data, err := os.ReadFile(o.systemPrompt)
		if err != nil {
			return nil, configErrorf("reading system prompt: %w", err)
		}
		cfg.Eval.SystemPrompt = strings.TrimSpace(string(data))
	}

	if !cfg.HasModel() {
		cfg.Models.Model = config.DefaultModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

// setup resolves configuration, builds the model client and loads the
// skill catalog.
func (o *evalOptions) setup(cmd *cobra.Command, defaultModel string) (*runEnv, error) {
	cfg, err := o.resolveConfig(cmd, defaultModel)
	if err != nil {
		return nil, err
	}

	client, err := newClient(cfg, o.clearCache)
	if err != nil {
		return nil, err
	}

	skills, err := loadSkills(cfg)
	if err != nil {
		_ = llm.Close(client)
		return nil, err
	}

	return &runEnv{
		cfg:        cfg,
		client:     client,
		skills:     skills,
		modelName:  cfg.Models.Model,
		model:      cfg.ResolveModel(cfg.Models.Model),
		judgeModel: cfg.ResolveModel(cfg.Models.JudgeModel),
		out:        cmd.OutOrStdout(),
	}, nil
}

// newClient builds the provider client, behind the response cache when it
// is enabled. clearCache empties the cache first.
func newClient(cfg *config.Config, clearCache bool) (llm.Client, error) {
	client, err := llm.New(llm.Options{
		Provider: cfg.Models.Provider,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.BaseURL(),
		Retry:    llm.DefaultRetryConfig,
	})
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if cfg.CacheEnabled() {
		dir, err := filepath.Abs(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
		c := cache.New(dir)
		if clearCache {
			if err := c.Clear(); err != nil {
				_ = llm.Close(client)
				return nil, fmt.Errorf("clearing cache: %w", err)
			}
			slog.Info("Cleared response cache", "dir", dir)
		}
		client = cache.NewClient(client, c)
	}
	return client, nil
}

// finish writes the artifact and any requested extras, then prints where
// they went.
func (o *evalOptions) finish(ctx context.Context, env *runEnv, a *reporting.Artifact, extras ...[2]string) error {
	path := o.output
	if path == "" {
		path = reporting.AutoPath(env.cfg.Paths.Results, a.Kind, env.modelName, time.Now(), extras...)
	}
	for _, kv := range extras {
		if kv[1] != "" {
			a.Params[kv[0]] = kv[1]
		}
	}

	if err := reporting.WriteJSON(a, path); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	fmt.Fprintf(env.out, "\nResults exported to %s\n", path) //nolint:errcheck

	if o.junitPath != "" {
		if err := reporting.WriteJUnitXML(a, o.junitPath); err != nil {
			return fmt.Errorf("saving JUnit report: %w", err)
		}
		fmt.Fprintf(env.out, "JUnit report written to %s\n", o.junitPath) //nolint:errcheck
	}

	if o.upload {
		uploader, err := reporting.NewBlobUploader(env.cfg.Upload.AccountURL, env.cfg.Upload.Container)
		if err != nil {
			return &ConfigError{Err: err}
		}
		url, err := uploader.Upload(ctx, a, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "Uploaded to %s\n", url) //nolint:errcheck
	}
	return nil
}

// signalContext is cancelled on interrupt so in-flight cases stop cleanly.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// progressListener prints one line per finished case. Runners call it from
// several goroutines.
func progressListener(w io.Writer, verbose bool) progress.Listener {
	var mu sync.Mutex
	return func(event progress.Event) {
		mu.Lock()
		defer mu.Unlock()

		switch event.Type {
		case progress.EventRunStart:
			fmt.Fprintf(w, "\n--- %s (%d cases) ---\n", event.Run, event.Total) //nolint:errcheck
		case progress.EventCaseComplete:
			if !verbose {
				fmt.Fprintf(w, "✓ [%d/%d] %s\n", event.Num, event.Total, event.CaseID) //nolint:errcheck
				return
			}
			fmt.Fprintf(w, "✓ [%d/%d] %s %s\n", event.Num, event.Total, event.CaseID, formatDetails(event.Details)) //nolint:errcheck
		case progress.EventCaseFailed:
			fmt.Fprintf(w, "✗ [%d/%d] %s: %v\n", event.Num, event.Total, event.CaseID, event.Details["error"]) //nolint:errcheck
		}
	}
}

func formatDetails(details map[string]any) string {
	keys := []string{"activated", "skills", "accuracy", "baseline_score", "enhanced_score", "winner"}
	var parts []string
	for _, k := range keys {
		if v, ok := details[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
