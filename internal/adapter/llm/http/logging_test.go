package http_test

import (
	"strings"
	"testing"

	llmhttp "github.com/dkelsey/agent-check/internal/adapter/llm/http"
)

func TestTruncateForLoggingShortResponse(t *testing.T) {
	short := "a short response"
	if got := llmhttp.TruncateForLogging(short); got != short {
		t.Errorf("TruncateForLogging = %q, want unchanged", got)
	}
}

func TestTruncateForLoggingLongResponse(t *testing.T) {
	long := strings.Repeat("x", llmhttp.MaxLoggedResponseLength*3)
	got := llmhttp.TruncateForLogging(long)

	if !strings.HasPrefix(got, strings.Repeat("x", llmhttp.MaxLoggedResponseLength)) {
		t.Error("truncated response lost its prefix")
	}
	if !strings.Contains(got, "truncated") {
		t.Errorf("truncated response %q carries no truncation marker", got[llmhttp.MaxLoggedResponseLength:])
	}
	if len(got) >= len(long) {
		t.Errorf("length = %d, want shorter than input %d", len(got), len(long))
	}
}
