package domain_test

import (
	"testing"

	"github.com/dkelsey/agent-check/internal/domain"
)

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "below range", input: -10, expected: 0},
		{name: "lower bound", input: 0, expected: 0},
		{name: "in range", input: 42, expected: 42},
		{name: "upper bound", input: 100, expected: 100},
		{name: "above range", input: 135, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.ClampConfidence(tt.input); got != tt.expected {
				t.Errorf("ClampConfidence(%d) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsSignatureIndicator(t *testing.T) {
	for _, tag := range []string{
		domain.IndicatorClaudeSignature,
		domain.IndicatorCopilotSignature,
		domain.IndicatorCursorSignature,
		domain.IndicatorCodexSignature,
	} {
		if !domain.IsSignatureIndicator(tag) {
			t.Errorf("IsSignatureIndicator(%q) = false, want true", tag)
		}
	}

	for _, tag := range []string{
		domain.IndicatorNoDescription,
		domain.IndicatorEvaluationError,
		"",
		"some-other-tag",
	} {
		if domain.IsSignatureIndicator(tag) {
			t.Errorf("IsSignatureIndicator(%q) = true, want false", tag)
		}
	}
}

func TestDefaultTuning(t *testing.T) {
	tuning := domain.DefaultTuning()

	if tuning.MajorityGate != 75 {
		t.Errorf("MajorityGate = %d, want 75", tuning.MajorityGate)
	}
	if tuning.AbsoluteMinConfidence != 90 {
		t.Errorf("AbsoluteMinConfidence = %d, want 90", tuning.AbsoluteMinConfidence)
	}

	// Human-leaning tags carry negative adjustments, agent-leaning positive.
	if adj := tuning.Adjustment(domain.IndicatorNoDescription); adj >= 0 {
		t.Errorf("Adjustment(no-pr-description) = %d, want negative", adj)
	}
	if adj := tuning.Adjustment(domain.IndicatorConventionalCommits); adj <= 0 {
		t.Errorf("Adjustment(perfect-conventional-commits) = %d, want positive", adj)
	}
	if adj := tuning.Adjustment("unknown-tag"); adj != 0 {
		t.Errorf("Adjustment(unknown-tag) = %d, want 0", adj)
	}
}
