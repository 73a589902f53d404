package main

import (
	"testing"
	"time"

	"github.com/dkelsey/agent-check/internal/adapter/llm/anthropic"
	llmhttp "github.com/dkelsey/agent-check/internal/adapter/llm/http"
	"github.com/dkelsey/agent-check/internal/adapter/llm/openai"
	"github.com/dkelsey/agent-check/internal/adapter/llm/static"
	"github.com/dkelsey/agent-check/internal/config"
)

func TestBuildJudge(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantType string // "anthropic", "openai", "static"
		wantErr  bool
	}{
		{
			name: "anthropic with API key",
			cfg: config.Config{
				Classifier: config.ClassifierConfig{Provider: "anthropic"},
				Providers: map[string]config.ProviderConfig{
					"anthropic": {APIKey: "test-key", Model: "claude-sonnet-4-20250514"},
				},
			},
			wantType: "anthropic",
		},
		{
			name: "anthropic without API key is fatal",
			cfg: config.Config{
				Classifier: config.ClassifierConfig{Provider: "anthropic"},
				Providers: map[string]config.ProviderConfig{
					"anthropic": {Model: "claude-sonnet-4-20250514"},
				},
			},
			wantErr: true,
		},
		{
			name: "openai with API key",
			cfg: config.Config{
				Classifier: config.ClassifierConfig{Provider: "openai"},
				Providers: map[string]config.ProviderConfig{
					"openai": {APIKey: "test-key", Model: "gpt-4o"},
				},
			},
			wantType: "openai",
		},
		{
			name: "static provider",
			cfg: config.Config{
				Classifier: config.ClassifierConfig{Provider: "static"},
			},
			wantType: "static",
		},
		{
			name: "empty provider defaults to static",
			cfg: config.Config{
				Classifier: config.ClassifierConfig{Provider: ""},
			},
			wantType: "static",
		},
		{
			name: "unsupported provider",
			cfg: config.Config{
				Classifier: config.ClassifierConfig{Provider: "gemini"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Make sure ambient credentials don't change the fallback path.
			t.Setenv("ANTHROPIC_API_KEY", "")
			t.Setenv("OPENAI_API_KEY", "")

			judge, err := buildJudge(tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildJudge: %v", err)
			}

			switch tt.wantType {
			case "anthropic":
				if _, ok := judge.(*anthropic.Judge); !ok {
					t.Errorf("judge type = %T, want *anthropic.Judge", judge)
				}
			case "openai":
				if _, ok := judge.(*openai.Judge); !ok {
					t.Errorf("judge type = %T, want *openai.Judge", judge)
				}
			case "static":
				if _, ok := judge.(*static.Judge); !ok {
					t.Errorf("judge type = %T, want *static.Judge", judge)
				}
			}
		})
	}
}

func TestBuildLogger(t *testing.T) {
	if got := buildLogger(config.ObservabilityConfig{}); got != nil {
		t.Errorf("disabled logging should yield a nil logger, got %T", got)
	}

	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{name: "debug human", cfg: config.LoggingConfig{Enabled: true, Level: "debug", Format: "human"}},
		{name: "error json", cfg: config.LoggingConfig{Enabled: true, Level: "error", Format: "json"}},
		{name: "unknown level falls back to info", cfg: config.LoggingConfig{Enabled: true, Level: "verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := buildLogger(config.ObservabilityConfig{Logging: tt.cfg})
			if logger == nil {
				t.Fatal("enabled logging should yield a logger")
			}
			if _, ok := logger.(*llmhttp.DefaultLogger); !ok {
				t.Errorf("logger type = %T, want *llmhttp.DefaultLogger", logger)
			}
		})
	}
}

func TestConfigureLLMClient(t *testing.T) {
	maxRetries := 7
	initialBackoff := "100ms"

	var gotTimeout time.Duration
	var gotRetry llmhttp.RetryConfig

	configureLLMClient(
		func(d time.Duration) { gotTimeout = d },
		func(c llmhttp.RetryConfig) { gotRetry = c },
		config.ProviderConfig{
			MaxRetries:     &maxRetries,
			InitialBackoff: &initialBackoff,
		},
		config.HTTPConfig{
			Timeout:           "45s",
			MaxRetries:        3,
			MaxBackoff:        "16s",
			BackoffMultiplier: 1.5,
		},
	)

	if gotTimeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", gotTimeout)
	}
	if gotRetry.MaxRetries != 7 {
		t.Errorf("maxRetries = %d, want provider override 7", gotRetry.MaxRetries)
	}
	if gotRetry.InitialBackoff != 100*time.Millisecond {
		t.Errorf("initialBackoff = %v, want provider override 100ms", gotRetry.InitialBackoff)
	}
	if gotRetry.MaxBackoff != 16*time.Second {
		t.Errorf("maxBackoff = %v, want 16s", gotRetry.MaxBackoff)
	}
	if gotRetry.Multiplier != 1.5 {
		t.Errorf("multiplier = %v, want 1.5", gotRetry.Multiplier)
	}
}

func TestResolveDuration(t *testing.T) {
	override := "5s"
	bogus := "not-a-duration"

	if d := resolveDuration(&override, "30s"); d != 5*time.Second {
		t.Errorf("override: %v, want 5s", d)
	}
	if d := resolveDuration(nil, "30s"); d != 30*time.Second {
		t.Errorf("global: %v, want 30s", d)
	}
	if d := resolveDuration(&bogus, "30s"); d != 30*time.Second {
		t.Errorf("bogus override falls through: %v, want 30s", d)
	}
	if d := resolveDuration(nil, ""); d != 0 {
		t.Errorf("unset: %v, want 0", d)
	}
}
