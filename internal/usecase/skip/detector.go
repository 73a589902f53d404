// Package skip provides skip trigger detection for authorship classification.
// It allows users to bypass the classifier by including specific patterns
// in commit messages or PR metadata.
package skip

import (
	"regexp"
	"strings"
)

// skipTriggerPattern matches [skip agent-check] or [skip-agent-check] (case-insensitive).
var skipTriggerPattern = regexp.MustCompile(`(?i)\[skip[ -]agent-check\]`)

// ContainsSkipTrigger checks if text contains a skip trigger pattern.
// Supported patterns:
//   - [skip agent-check]
//   - [skip-agent-check]
//
// Matching is case-insensitive.
func ContainsSkipTrigger(text string) bool {
	return skipTriggerPattern.MatchString(text)
}

// CheckRequest contains the inputs to check for skip triggers.
type CheckRequest struct {
	CommitMessages []string
	PRTitle        string
	PRDescription  string
}

// CheckResult contains the result of checking for skip triggers.
type CheckResult struct {
	ShouldSkip bool
	Reason     string // Source where trigger was found
}

// Check examines commit messages and PR metadata for skip triggers.
// It checks in order: commit messages, PR title, PR description.
// Returns the first match found.
func Check(req CheckRequest) CheckResult {
	for _, msg := range req.CommitMessages {
		if ContainsSkipTrigger(msg) {
			return CheckResult{ShouldSkip: true, Reason: "commit message"}
		}
	}

	if ContainsSkipTrigger(strings.TrimSpace(req.PRTitle)) {
		return CheckResult{ShouldSkip: true, Reason: "PR title"}
	}

	if ContainsSkipTrigger(req.PRDescription) {
		return CheckResult{ShouldSkip: true, Reason: "PR description"}
	}

	return CheckResult{}
}
