// Package observability bridges the structured HTTP logger into the
// classification pipeline.
package observability

import (
	"context"

	llmhttp "github.com/dkelsey/agent-check/internal/adapter/llm/http"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

// ClassifyLogger adapts llmhttp.Logger to the classify.Logger interface so
// the orchestrator shares the same logging infrastructure as the LLM HTTP
// clients.
type ClassifyLogger struct {
	logger llmhttp.Logger
}

// NewClassifyLogger creates a new classification logger adapter.
func NewClassifyLogger(logger llmhttp.Logger) classify.Logger {
	return &ClassifyLogger{logger: logger}
}

// LogWarning logs a warning message with structured fields.
func (l *ClassifyLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *ClassifyLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}
