package classify_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected domain.Judgment
		wantErr  bool
	}{
		{
			name: "plain JSON",
			text: `{"isHumanLike": false, "confidence": 85, "reasoning": "uniform error handling", "indicators": ["verbose-naming-patterns"]}`,
			expected: domain.Judgment{
				IsHumanLike: false,
				Confidence:  85,
				Reasoning:   "uniform error handling",
				Indicators:  []string{"verbose-naming-patterns"},
			},
		},
		{
			name: "JSON inside markdown code fence",
			text: "Here is my analysis:\n```json\n{\"isHumanLike\": true, \"confidence\": 70, \"reasoning\": \"inconsistent style\"}\n```\n",
			expected: domain.Judgment{
				IsHumanLike: true,
				Confidence:  70,
				Reasoning:   "inconsistent style",
			},
		},
		{
			name: "fence without language marker",
			text: "```\n{\"isHumanLike\": true, \"confidence\": 60, \"reasoning\": \"ok\"}\n```",
			expected: domain.Judgment{
				IsHumanLike: true,
				Confidence:  60,
				Reasoning:   "ok",
			},
		},
		{
			name:     "float confidence is rounded",
			text:     `{"isHumanLike": false, "confidence": 82.6, "reasoning": "r"}`,
			expected: domain.Judgment{IsHumanLike: false, Confidence: 83, Reasoning: "r"},
		},
		{
			name:     "out of range confidence is clamped",
			text:     `{"isHumanLike": false, "confidence": 140, "reasoning": "r"}`,
			expected: domain.Judgment{IsHumanLike: false, Confidence: 100, Reasoning: "r"},
		},
		{name: "not JSON", text: "definitely machine generated, trust me", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify.ParseJudgment(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsHumanLike != tt.expected.IsHumanLike || got.Confidence != tt.expected.Confidence || got.Reasoning != tt.expected.Reasoning {
				t.Errorf("ParseJudgment = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestNormalizeJudgmentRecovery(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantHumanLike  bool
		wantConfidence int
	}{
		{
			name:           "mentions human with confidence pattern",
			text:           "This looks human written. Confidence: 72 based on the uneven comments.",
			wantHumanLike:  true,
			wantConfidence: 72,
		},
		{
			name:           "no human mention defaults to agent polarity",
			text:           "Clearly machine generated boilerplate, confidence=88",
			wantHumanLike:  false,
			wantConfidence: 88,
		},
		{
			name:           "no confidence pattern defaults to 50",
			text:           "A human probably wrote this.",
			wantHumanLike:  true,
			wantConfidence: 50,
		},
		{
			name:           "garbage defaults entirely",
			text:           "507 server error page <html>",
			wantHumanLike:  false,
			wantConfidence: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.NormalizeJudgment(tt.text)
			if got.IsHumanLike != tt.wantHumanLike {
				t.Errorf("IsHumanLike = %v, want %v", got.IsHumanLike, tt.wantHumanLike)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %d, want %d", got.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestNormalizeJudgmentPrefersStrictJSON(t *testing.T) {
	// Valid JSON must win even when the surrounding text mentions "human".
	got := classify.NormalizeJudgment(`{"isHumanLike": false, "confidence": 91, "reasoning": "no human would write this"}`)
	if got.IsHumanLike {
		t.Error("IsHumanLike = true, want false from strict JSON")
	}
	if got.Confidence != 91 {
		t.Errorf("Confidence = %d, want 91", got.Confidence)
	}
}

func TestNormalizeJudgmentTruncatesRecoveredReasoning(t *testing.T) {
	got := classify.NormalizeJudgment(strings.Repeat("x", 2000))
	if len(got.Reasoning) > 310 {
		t.Errorf("recovered reasoning length = %d, want truncated", len(got.Reasoning))
	}
}

func TestNormalizeJudgmentTruncatesOnRuneBoundary(t *testing.T) {
	// Multibyte text long enough to force truncation must not be cut
	// mid-rune.
	got := classify.NormalizeJudgment(strings.Repeat("héllo wörld ", 100))
	if !utf8.ValidString(got.Reasoning) {
		t.Errorf("recovered reasoning is not valid UTF-8: %q", got.Reasoning)
	}
	if len(got.Reasoning) > 310 {
		t.Errorf("recovered reasoning length = %d, want truncated", len(got.Reasoning))
	}
}
