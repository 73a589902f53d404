package domain

// Indicator tags form a fixed vocabulary. The same tag always maps to the
// same confidence adjustment within one evaluation run (see Tuning).
const (
	// Explicit agent attribution. Any of these force the final verdict.
	IndicatorClaudeSignature  = "claude-code-signature"
	IndicatorCopilotSignature = "copilot-signature"
	IndicatorCursorSignature  = "cursor-signature"
	IndicatorCodexSignature   = "codex-signature"

	// PR metadata signals.
	IndicatorNoDescription         = "no-pr-description"
	IndicatorConventionalCommits   = "perfect-conventional-commits"
	IndicatorStructuredDescription = "structured-pr-description"
	IndicatorCheckboxList          = "checkbox-task-list"
	IndicatorTestPlanSection       = "test-plan-section"
	IndicatorTerseFixTitle         = "terse-fix-title"

	// Marks a per-file judgment that fell back because the judge call failed.
	IndicatorEvaluationError = "evaluation-error"
)

var signatureIndicators = map[string]bool{
	IndicatorClaudeSignature:  true,
	IndicatorCopilotSignature: true,
	IndicatorCursorSignature:  true,
	IndicatorCodexSignature:   true,
}

// IsSignatureIndicator reports whether tag is an explicit agent attribution.
// Signature indicators are absolute: they override every other signal.
func IsSignatureIndicator(tag string) bool {
	return signatureIndicators[tag]
}
