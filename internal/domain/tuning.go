package domain

// Tuning holds the classifier's numeric knobs. It is injected rather than
// read from package-level constants so deployments can retune without code
// edits and tests can pin exact values.
//
// Adjustment sign convention: positive pushes toward agent-authored,
// negative toward human-authored.
type Tuning struct {
	// Adjustments maps indicator tags to signed confidence adjustments.
	Adjustments map[string]int

	// MajorityGate is the minimum average confidence AI-leaning file
	// judgments must exceed for a majority vote to classify as agent-authored.
	MajorityGate int

	// AbsoluteMinConfidence is the floor applied to the confidence of an
	// absolute-override verdict.
	AbsoluteMinConfidence int

	// StructuralThreshold is the minimum PR-level structural score required
	// for the non-code-file special case to classify as agent-authored.
	StructuralThreshold int

	// FlipCeiling bounds the PR-context correction: an agent verdict with
	// pre-adjustment confidence at or above this value can never be flipped
	// back to human by PR-level signals.
	FlipCeiling int
}

// DefaultTuning returns the stock adjustment table and thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		Adjustments: map[string]int{
			IndicatorNoDescription:         -15,
			IndicatorTerseFixTitle:         -20,
			IndicatorConventionalCommits:   20,
			IndicatorStructuredDescription: 15,
			IndicatorCheckboxList:          10,
			IndicatorTestPlanSection:       10,
		},
		MajorityGate:          75,
		AbsoluteMinConfidence: 90,
		StructuralThreshold:   25,
		FlipCeiling:           85,
	}
}

// Adjustment returns the signed adjustment for a tag, zero when untuned.
func (t Tuning) Adjustment(tag string) int {
	return t.Adjustments[tag]
}
