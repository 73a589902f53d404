package config

import (
	"time"

	"github.com/dkelsey/agent-check/internal/domain"
)

// Config represents the full application configuration.
type Config struct {
	Providers     map[string]ProviderConfig `yaml:"providers"`
	HTTP          HTTPConfig                `yaml:"http"`
	GitHub        GitHubConfig              `yaml:"github"`
	Classifier    ClassifierConfig          `yaml:"classifier"`
	Git           GitConfig                 `yaml:"git"`
	Output        OutputConfig              `yaml:"output"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
	Redaction     RedactionConfig           `yaml:"redaction"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// GitHubConfig configures access to the GitHub API and how verdicts are
// published.
type GitHubConfig struct {
	Token       string `yaml:"token"`
	Owner       string `yaml:"owner"`
	Repo        string `yaml:"repo"`
	BaseURL     string `yaml:"baseURL"`
	PostComment bool   `yaml:"postComment"`
	FailOnHuman bool   `yaml:"failOnHuman"`
}

// ClassifierConfig tunes the classification pipeline.
type ClassifierConfig struct {
	// Provider selects which LLM judge to use (anthropic, openai, static).
	Provider string `yaml:"provider"`

	// ErrAssume is the verdict assumed for a file when the judge fails:
	// "human" or "agent".
	ErrAssume string `yaml:"errAssume"`

	// MaxConcurrent bounds parallel judge calls.
	MaxConcurrent int `yaml:"maxConcurrent"`

	// JudgeTimeout is the per-file judge call timeout.
	JudgeTimeout string `yaml:"judgeTimeout"`

	// MaxPatchTokens truncates each diff to this many tokens before
	// prompting. Zero disables truncation.
	MaxPatchTokens int `yaml:"maxPatchTokens"`

	// Threshold overrides; zero keeps the built-in defaults.
	MajorityGate          int `yaml:"majorityGate"`
	AbsoluteMinConfidence int `yaml:"absoluteMinConfidence"`
	StructuralThreshold   int `yaml:"structuralThreshold"`
	FlipCeiling           int `yaml:"flipCeiling"`

	// Adjustments overrides per-indicator confidence adjustments by tag.
	Adjustments map[string]int `yaml:"adjustments"`
}

// AssumeHumanOnError reports whether judge failures should count as human.
// Anything other than an explicit "agent" keeps the default human polarity.
func (c ClassifierConfig) AssumeHumanOnError() bool {
	return c.ErrAssume != "agent"
}

// JudgeTimeoutDuration parses the judge timeout, zero when unset or invalid.
func (c ClassifierConfig) JudgeTimeoutDuration() time.Duration {
	if c.JudgeTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.JudgeTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Tuning builds the domain tuning, overlaying configured overrides on the
// defaults.
func (c ClassifierConfig) Tuning() domain.Tuning {
	tuning := domain.DefaultTuning()

	if c.MajorityGate != 0 {
		tuning.MajorityGate = c.MajorityGate
	}
	if c.AbsoluteMinConfidence != 0 {
		tuning.AbsoluteMinConfidence = c.AbsoluteMinConfidence
	}
	if c.StructuralThreshold != 0 {
		tuning.StructuralThreshold = c.StructuralThreshold
	}
	if c.FlipCeiling != 0 {
		tuning.FlipCeiling = c.FlipCeiling
	}
	for tag, adjustment := range c.Adjustments {
		tuning.Adjustments[tag] = adjustment
	}

	return tuning
}

// GitConfig locates the local repository for branch mode.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// OutputConfig configures report artifacts.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, error
	Format        string `yaml:"format"`        // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}

// RedactionConfig controls credential scrubbing of prompts.
type RedactionConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.GitHub = chooseGitHub(base.GitHub, overlay.GitHub)
	result.Classifier = chooseClassifier(base.Classifier, overlay.Classifier)
	result.Git = chooseGit(base.Git, overlay.Git)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Redaction = chooseRedaction(base.Redaction, overlay.Redaction)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

func chooseGitHub(base, overlay GitHubConfig) GitHubConfig {
	result := base
	if overlay.Token != "" {
		result.Token = overlay.Token
	}
	if overlay.Owner != "" {
		result.Owner = overlay.Owner
	}
	if overlay.Repo != "" {
		result.Repo = overlay.Repo
	}
	if overlay.BaseURL != "" {
		result.BaseURL = overlay.BaseURL
	}
	if overlay.PostComment {
		result.PostComment = true
	}
	if overlay.FailOnHuman {
		result.FailOnHuman = true
	}
	return result
}

func chooseClassifier(base, overlay ClassifierConfig) ClassifierConfig {
	result := base
	if overlay.Provider != "" {
		result.Provider = overlay.Provider
	}
	if overlay.ErrAssume != "" {
		result.ErrAssume = overlay.ErrAssume
	}
	if overlay.MaxConcurrent != 0 {
		result.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.JudgeTimeout != "" {
		result.JudgeTimeout = overlay.JudgeTimeout
	}
	if overlay.MaxPatchTokens != 0 {
		result.MaxPatchTokens = overlay.MaxPatchTokens
	}
	if overlay.MajorityGate != 0 {
		result.MajorityGate = overlay.MajorityGate
	}
	if overlay.AbsoluteMinConfidence != 0 {
		result.AbsoluteMinConfidence = overlay.AbsoluteMinConfidence
	}
	if overlay.StructuralThreshold != 0 {
		result.StructuralThreshold = overlay.StructuralThreshold
	}
	if overlay.FlipCeiling != 0 {
		result.FlipCeiling = overlay.FlipCeiling
	}
	if len(overlay.Adjustments) > 0 {
		result.Adjustments = overlay.Adjustments
	}
	return result
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseRedaction(base, overlay RedactionConfig) RedactionConfig {
	if overlay.Enabled {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
