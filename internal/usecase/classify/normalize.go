package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dkelsey/agent-check/internal/domain"
)

var (
	codeFencePattern  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	confidencePattern = regexp.MustCompile(`(?i)confidence["']?\s*[:=]\s*(\d{1,3})`)
)

// ParseJudgment parses a judge response that is expected to be a JSON object
// matching the Judgment shape, possibly wrapped in a markdown code fence.
func ParseJudgment(text string) (domain.Judgment, error) {
	jsonText := strings.TrimSpace(text)
	if matches := codeFencePattern.FindStringSubmatch(text); len(matches) > 1 {
		jsonText = strings.TrimSpace(matches[1])
	}

	// Confidence arrives as a number; models sometimes emit floats.
	var raw struct {
		IsHumanLike bool     `json:"isHumanLike"`
		Confidence  float64  `json:"confidence"`
		Reasoning   string   `json:"reasoning"`
		Indicators  []string `json:"indicators"`
	}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return domain.Judgment{}, fmt.Errorf("parse judgment JSON: %w", err)
	}

	return domain.Judgment{
		IsHumanLike: raw.IsHumanLike,
		Confidence:  domain.ClampConfidence(int(math.Round(raw.Confidence))),
		Reasoning:   raw.Reasoning,
		Indicators:  raw.Indicators,
	}, nil
}

// NormalizeJudgment turns a possibly malformed judge response into a
// Judgment. Strict JSON parsing is tried first; on failure the raw text is
// scanned best-effort: the substring "human" guesses polarity, a
// "confidence: NN" pattern supplies confidence, defaulting to 50. This is a
// deliberate degradation path, not an error.
func NormalizeJudgment(text string) domain.Judgment {
	if judgment, err := ParseJudgment(text); err == nil {
		return judgment
	}

	confidence := 50
	if matches := confidencePattern.FindStringSubmatch(text); len(matches) > 1 {
		if v, err := strconv.Atoi(matches[1]); err == nil {
			confidence = domain.ClampConfidence(v)
		}
	}

	return domain.Judgment{
		IsHumanLike: strings.Contains(strings.ToLower(text), "human"),
		Confidence:  confidence,
		Reasoning:   truncateReasoning(text),
	}
}

const maxRecoveredReasoning = 300

func truncateReasoning(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= maxRecoveredReasoning {
		return trimmed
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := maxRecoveredReasoning
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut] + "..."
}
