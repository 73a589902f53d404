// Package static provides an offline-friendly Judge implementation.
package static

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

// Judge returns deterministic canned judgments without network access.
// Useful for dry runs and as a fallback when no provider is configured.
type Judge struct {
	humanLike  bool
	confidence int
}

// NewJudge constructs a stub Judge that always reports the given verdict.
func NewJudge(humanLike bool, confidence int) *Judge {
	return &Judge{humanLike: humanLike, confidence: confidence}
}

// Judge returns a canned JSON judgment for the file.
func (j *Judge) Judge(ctx context.Context, req classify.JudgeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Marshalled rather than templated so filenames with quotes or
	// backslashes still produce valid JSON.
	payload, err := json.Marshal(struct {
		IsHumanLike bool     `json:"isHumanLike"`
		Confidence  int      `json:"confidence"`
		Reasoning   string   `json:"reasoning"`
		Indicators  []string `json:"indicators"`
	}{
		IsHumanLike: j.humanLike,
		Confidence:  j.confidence,
		Reasoning:   fmt.Sprintf("static judgment for %s", req.Filename),
		Indicators:  []string{},
	})
	if err != nil {
		return "", fmt.Errorf("marshal static judgment: %w", err)
	}
	return string(payload), nil
}
