// Package markdown renders verdicts into Markdown report files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkelsey/agent-check/internal/domain"
)

type clock func() string

// Writer renders classification verdicts into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk.
func (w *Writer) Write(ctx context.Context, artifact domain.VerdictArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(artifact.Repository),
		sanitise(artifact.Reference),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact domain.VerdictArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Authorship Classification Report\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", artifact.Repository))
	builder.WriteString(fmt.Sprintf("- Reference: %s\n", artifact.Reference))
	builder.WriteString(fmt.Sprintf("- Verdict: %s\n", caser.String(authorLabel(artifact.Verdict))))
	builder.WriteString(fmt.Sprintf("- Confidence: %d%%\n\n", artifact.Verdict.Confidence))

	builder.WriteString("## Reasoning\n\n")
	if artifact.Verdict.Reasoning == "" {
		builder.WriteString("No reasoning provided.\n\n")
	} else {
		builder.WriteString(artifact.Verdict.Reasoning)
		builder.WriteString("\n\n")
	}

	if len(artifact.Verdict.Indicators) > 0 {
		builder.WriteString("## Indicators\n\n")
		for _, indicator := range artifact.Verdict.Indicators {
			builder.WriteString(fmt.Sprintf("- `%s`\n", indicator))
		}
		builder.WriteString("\n")
	}

	if len(artifact.Files) == 0 {
		builder.WriteString("No file judgments recorded.\n")
		return builder.String()
	}

	builder.WriteString("## Files\n\n")
	for _, file := range artifact.Files {
		builder.WriteString(fmt.Sprintf("### %s\n", file.Filename))
		builder.WriteString(fmt.Sprintf("- Verdict: %s\n", caser.String(authorLabel(file.Judgment))))
		builder.WriteString(fmt.Sprintf("- Confidence: %d%%\n", file.Judgment.Confidence))
		if file.Judgment.Reasoning != "" {
			builder.WriteString(fmt.Sprintf("- Reasoning: %s\n", file.Judgment.Reasoning))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func authorLabel(judgment domain.Judgment) string {
	if judgment.IsHumanLike {
		return "human"
	}
	return "ai agent"
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
