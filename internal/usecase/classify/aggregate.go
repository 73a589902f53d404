package classify

import (
	"fmt"
	"strings"

	"github.com/dkelsey/agent-check/internal/domain"
)

// Aggregator folds per-file judgments and PR-level signals into one verdict.
// The fold is pure and order-independent over the set of file judgments.
type Aggregator struct {
	tuning domain.Tuning
}

// NewAggregator constructs an aggregator with the supplied tuning.
func NewAggregator(tuning domain.Tuning) *Aggregator {
	return &Aggregator{tuning: tuning}
}

// Aggregate applies the decision steps in strict precedence order:
//
//  1. Absolute override: an explicit agent signature anywhere (file-level
//     checked before PR-level) forces an agent verdict at high confidence.
//     Later steps can never weaken it.
//  2. Non-code special case: when no file judgment carries a usable
//     indicator and the structural PR score clears its threshold, classify
//     as agent-authored with confidence sourced from the PR-level score.
//  3. Majority vote: agent-leaning files must outnumber human-leaning ones
//     AND their average confidence must exceed the gate. Ties and failed
//     gates default to human-authored.
//  4. PR-context correction: the net signal adjustment shifts the winning
//     confidence and may flip a borderline agent verdict back to human.
//  5. Reasoning and the de-duplicated indicator union are composed last.
func (a *Aggregator) Aggregate(files []domain.Judgment, signals SignalSet) domain.Judgment {
	indicators := unionIndicators(files, signals)

	// Step 1: absolute override. File-level signatures take precedence over
	// PR-level ones, and both bypass everything below.
	if tag, ok := fileSignature(files); ok {
		return a.absoluteVerdict(tag, "file-level", indicators)
	}
	if signals.Absolute {
		tag := firstSignatureTag(signals.Indicators)
		return a.absoluteVerdict(tag, "pr-level", indicators)
	}

	// Step 2: uninformative file judgments with a strongly structured PR
	// description. Confidence comes from the PR-level score because the
	// file-level average carries no signal.
	if len(files) > 0 && noUsableIndicators(files) && signals.StructuralScore >= a.tuning.StructuralThreshold {
		confidence := domain.ClampConfidence(50 + signals.StructuralScore)
		return domain.Judgment{
			IsHumanLike: false,
			Confidence:  confidence,
			Reasoning: fmt.Sprintf(
				"file judgments carried no indicators; structured description score %d met threshold %d (%s)",
				signals.StructuralScore, a.tuning.StructuralThreshold, joinTags(signals.Indicators)),
			Indicators: indicators,
		}
	}

	// Step 3: majority vote with confidence gate.
	verdict := a.majorityVote(files)

	// Step 4: PR-context correction, clamped to [0, 100]. A flip recomputes
	// confidence relative to the new polarity.
	verdict = a.applyCorrection(verdict, signals)

	verdict.Indicators = indicators
	return verdict
}

func (a *Aggregator) absoluteVerdict(tag, source string, indicators []string) domain.Judgment {
	return domain.Judgment{
		IsHumanLike: false,
		Confidence:  a.tuning.AbsoluteMinConfidence,
		Reasoning:   fmt.Sprintf("explicit agent signature %s found in %s metadata; verdict forced to agent-authored", tag, source),
		Indicators:  indicators,
	}
}

func (a *Aggregator) majorityVote(files []domain.Judgment) domain.Judgment {
	var agentCount, humanCount, agentConfSum, humanConfSum int
	for _, j := range files {
		if j.IsHumanLike {
			humanCount++
			humanConfSum += j.Confidence
		} else {
			agentCount++
			agentConfSum += j.Confidence
		}
	}

	if agentCount > humanCount {
		avg := agentConfSum / agentCount
		if avg > a.tuning.MajorityGate {
			return domain.Judgment{
				IsHumanLike: false,
				Confidence:  avg,
				Reasoning: fmt.Sprintf("majority vote: %d of %d files agent-leaning with average confidence %d above gate %d",
					agentCount, len(files), avg, a.tuning.MajorityGate),
			}
		}
		return domain.Judgment{
			IsHumanLike: true,
			Confidence:  humanDefaultConfidence(humanCount, humanConfSum, avg),
			Reasoning: fmt.Sprintf("agent-leaning majority (%d of %d files) below confidence gate (%d <= %d); defaulting to human-authored",
				agentCount, len(files), avg, a.tuning.MajorityGate),
		}
	}

	// Tie or human majority: tie goes to human.
	avgAgent := 0
	if agentCount > 0 {
		avgAgent = agentConfSum / agentCount
	}
	return domain.Judgment{
		IsHumanLike: true,
		Confidence:  humanDefaultConfidence(humanCount, humanConfSum, avgAgent),
		Reasoning: fmt.Sprintf("majority vote: %d of %d files human-leaning or tied; human-authored",
			humanCount, len(files)),
	}
}

// humanDefaultConfidence derives the confidence of a human verdict from the
// human-leaning judgments when present, otherwise from the inverse of the
// agent-leaning average, falling back to mid-range.
func humanDefaultConfidence(humanCount, humanConfSum, avgAgent int) int {
	if humanCount > 0 {
		return domain.ClampConfidence(humanConfSum / humanCount)
	}
	if avgAgent > 0 {
		return domain.ClampConfidence(100 - avgAgent)
	}
	return 50
}

func (a *Aggregator) applyCorrection(verdict domain.Judgment, signals SignalSet) domain.Judgment {
	if signals.Adjustment == 0 {
		return verdict
	}

	if !verdict.IsHumanLike {
		adjusted := domain.ClampConfidence(verdict.Confidence + signals.Adjustment)
		if adjusted < 50 && verdict.Confidence < a.tuning.FlipCeiling {
			// Confidence is recomputed against the new polarity, never
			// carried across the flip unchanged.
			return domain.Judgment{
				IsHumanLike: true,
				Confidence:  domain.ClampConfidence(100 - adjusted),
				Reasoning: fmt.Sprintf("%s; pr-context adjustment %+d (%s) flipped the verdict to human-authored",
					verdict.Reasoning, signals.Adjustment, joinTags(signals.Indicators)),
			}
		}
		verdict.Confidence = adjusted
		verdict.Reasoning = fmt.Sprintf("%s; pr-context adjustment %+d (%s)",
			verdict.Reasoning, signals.Adjustment, joinTags(signals.Indicators))
		return verdict
	}

	// Human verdict: agent-leaning signals erode its confidence,
	// human-leaning signals reinforce it. Polarity never flips here.
	verdict.Confidence = domain.ClampConfidence(verdict.Confidence - signals.Adjustment)
	verdict.Reasoning = fmt.Sprintf("%s; pr-context adjustment %+d (%s)",
		verdict.Reasoning, signals.Adjustment, joinTags(signals.Indicators))
	return verdict
}

func fileSignature(files []domain.Judgment) (string, bool) {
	for _, j := range files {
		for _, tag := range j.Indicators {
			if domain.IsSignatureIndicator(tag) {
				return tag, true
			}
		}
	}
	return "", false
}

func firstSignatureTag(tags []string) string {
	for _, tag := range tags {
		if domain.IsSignatureIndicator(tag) {
			return tag
		}
	}
	return ""
}

func noUsableIndicators(files []domain.Judgment) bool {
	for _, j := range files {
		if len(j.Indicators) > 0 {
			return false
		}
	}
	return true
}

// unionIndicators merges file-level and PR-level tags into a duplicate-free
// list, preserving first-seen order.
func unionIndicators(files []domain.Judgment, signals SignalSet) []string {
	seen := make(map[string]bool)
	var union []string
	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		union = append(union, tag)
	}
	for _, j := range files {
		for _, tag := range j.Indicators {
			add(tag)
		}
	}
	for _, tag := range signals.Indicators {
		add(tag)
	}
	return union
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "no tags"
	}
	return strings.Join(tags, ", ")
}
