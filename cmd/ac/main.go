package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dkelsey/agent-check/internal/adapter/cli"
	"github.com/dkelsey/agent-check/internal/adapter/git"
	githubadapter "github.com/dkelsey/agent-check/internal/adapter/github"
	"github.com/dkelsey/agent-check/internal/adapter/llm"
	"github.com/dkelsey/agent-check/internal/adapter/llm/anthropic"
	llmhttp "github.com/dkelsey/agent-check/internal/adapter/llm/http"
	"github.com/dkelsey/agent-check/internal/adapter/llm/openai"
	"github.com/dkelsey/agent-check/internal/adapter/llm/static"
	"github.com/dkelsey/agent-check/internal/adapter/observability"
	"github.com/dkelsey/agent-check/internal/adapter/output/markdown"
	"github.com/dkelsey/agent-check/internal/adapter/store/sqlite"
	"github.com/dkelsey/agent-check/internal/config"
	"github.com/dkelsey/agent-check/internal/redaction"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
	"github.com/dkelsey/agent-check/internal/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrHumanVerdict) {
			log.Println(err.Error())
			os.Exit(2)
		}
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "ac",
		EnvPrefix:   "AC",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obsLogger := buildLogger(cfg.Observability)

	var classifyLogger classify.Logger
	if obsLogger != nil {
		classifyLogger = observability.NewClassifyLogger(obsLogger)
	}

	judge, err := buildJudge(cfg, obsLogger)
	if err != nil {
		return err
	}

	var redactor classify.Redactor
	if cfg.Redaction.Enabled {
		redactor = redaction.NewEngine()
	}

	promptBuilder := classify.NewPromptBuilder(cfg.Classifier.MaxPatchTokens, llm.TruncateTokens)
	evaluator, err := classify.NewFileEvaluator(judge, classify.EvaluatorOptions{
		AssumeHumanOnError: cfg.Classifier.AssumeHumanOnError(),
		CallTimeout:        cfg.Classifier.JudgeTimeoutDuration(),
		PromptBuilder:      promptBuilder,
		Redactor:           redactor,
		Logger:             classifyLogger,
	})
	if err != nil {
		return err
	}

	opts := classify.OrchestratorOptions{
		Logger:        classifyLogger,
		MaxConcurrent: cfg.Classifier.MaxConcurrent,
		OutputDir:     cfg.Output.Directory,
	}

	token := cfg.GitHub.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token != "" {
		ghClient := githubadapter.NewClient(token)
		if cfg.GitHub.BaseURL != "" {
			ghClient.SetBaseURL(cfg.GitHub.BaseURL)
		}
		opts.Pulls = githubadapter.NewSource(ghClient)
		opts.Reporter = githubadapter.NewReporter(ghClient)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	opts.Branches = git.NewEngine(repoDir)

	// A broken store degrades to no persistence, never a fatal error.
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if store, err := sqlite.NewStore(cfg.Store.Path); err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
		} else {
			opts.Store = store
			defer store.Close()
		}
	}

	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	opts.Artifacts = markdown.NewWriter(nowFunc)

	orchestrator, err := classify.NewOrchestrator(evaluator, cfg.Classifier.Tuning(), opts)
	if err != nil {
		return err
	}

	deps := cli.Dependencies{
		BranchClassifier: orchestrator,
		DetectPull:       githubadapter.DetectPullNumber,
		DefaultOwner:     cfg.GitHub.Owner,
		DefaultRepo:      cfg.GitHub.Repo,
		PostComment:      cfg.GitHub.PostComment,
		FailOnHuman:      cfg.GitHub.FailOnHuman,
		Version:          version.Value(),
	}
	if opts.Pulls != nil {
		deps.PullClassifier = orchestrator
	}

	root := cli.NewRootCommand(deps)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrHumanVerdict) {
			return err
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildLogger assembles the LLM call logger, or nil when logging is disabled.
func buildLogger(cfg config.ObservabilityConfig) llmhttp.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	var level llmhttp.LogLevel
	switch cfg.Logging.Level {
	case "debug":
		level = llmhttp.LogLevelDebug
	case "error":
		level = llmhttp.LogLevelError
	default:
		level = llmhttp.LogLevelInfo
	}

	format := llmhttp.LogFormatHuman
	if cfg.Logging.Format == "json" {
		format = llmhttp.LogFormatJSON
	}

	return llmhttp.NewDefaultLogger(level, format, cfg.Logging.RedactAPIKeys)
}

// buildJudge selects the configured LLM judge. A missing API key for the
// selected provider is fatal here rather than deferred to first use.
func buildJudge(cfg config.Config, logger llmhttp.Logger) (classify.Judge, error) {
	name := cfg.Classifier.Provider
	providerCfg := cfg.Providers[name]

	switch name {
	case "anthropic":
		apiKey := providerCfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic: missing API key (set ANTHROPIC_API_KEY or providers.anthropic.apiKey)")
		}
		client := anthropic.NewHTTPClient(apiKey, providerCfg.Model)
		configureLLMClient(client.SetTimeout, client.SetRetryConfig, providerCfg, cfg.HTTP)
		if logger != nil {
			client.SetLogger(logger)
		}
		return anthropic.NewJudge(client)

	case "openai":
		apiKey := providerCfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai: missing API key (set OPENAI_API_KEY or providers.openai.apiKey)")
		}
		client := openai.NewHTTPClient(apiKey, providerCfg.Model)
		configureLLMClient(client.SetTimeout, client.SetRetryConfig, providerCfg, cfg.HTTP)
		if logger != nil {
			client.SetLogger(logger)
		}
		return openai.NewJudge(client)

	case "static", "":
		return static.NewJudge(true, 50), nil

	default:
		return nil, fmt.Errorf("unsupported classifier provider %q (supported: anthropic, openai, static)", name)
	}
}

// configureLLMClient applies global HTTP settings plus per-provider overrides.
func configureLLMClient(setTimeout func(time.Duration), setRetry func(llmhttp.RetryConfig), providerCfg config.ProviderConfig, httpCfg config.HTTPConfig) {
	if timeout := resolveDuration(providerCfg.Timeout, httpCfg.Timeout); timeout > 0 {
		setTimeout(timeout)
	}

	retry := llmhttp.DefaultRetryConfig()
	if httpCfg.MaxRetries > 0 {
		retry.MaxRetries = httpCfg.MaxRetries
	}
	if providerCfg.MaxRetries != nil {
		retry.MaxRetries = *providerCfg.MaxRetries
	}
	if backoff := resolveDuration(providerCfg.InitialBackoff, httpCfg.InitialBackoff); backoff > 0 {
		retry.InitialBackoff = backoff
	}
	if backoff := resolveDuration(providerCfg.MaxBackoff, httpCfg.MaxBackoff); backoff > 0 {
		retry.MaxBackoff = backoff
	}
	if httpCfg.BackoffMultiplier > 0 {
		retry.Multiplier = httpCfg.BackoffMultiplier
	}
	setRetry(retry)
}

// resolveDuration parses the provider override first, the global value second.
func resolveDuration(override *string, global string) time.Duration {
	if override != nil {
		if d, err := time.ParseDuration(*override); err == nil {
			return d
		}
	}
	if global != "" {
		if d, err := time.ParseDuration(global); err == nil {
			return d
		}
	}
	return 0
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ac"))
	}
	return paths
}
