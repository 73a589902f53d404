package markdown_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkelsey/agent-check/internal/adapter/output/markdown"
	"github.com/dkelsey/agent-check/internal/domain"
)

func TestWriterProducesDeterministicMarkdown(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, domain.VerdictArtifact{
		OutputDir:  dir,
		Repository: "octocat/demo",
		Reference:  "pr-42",
		Verdict: domain.Judgment{
			IsHumanLike: false,
			Confidence:  85,
			Reasoning:   "Conventional commits and uniform style.",
			Indicators:  []string{"perfect-conventional-commits"},
		},
		Files: []domain.FileJudgment{
			{
				Filename: "main.go",
				Judgment: domain.Judgment{IsHumanLike: false, Confidence: 80, Reasoning: "Verbose naming."},
			},
		},
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	if filepath.Base(path) != "octocat-demo_pr-42_2026-01-01T00-00-00Z.md" {
		t.Fatalf("unexpected filename: %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	text := string(content)
	for _, want := range []string{
		"# Authorship Classification Report",
		"- Verdict: Ai Agent",
		"- Confidence: 85%",
		"Conventional commits and uniform style.",
		"`perfect-conventional-commits`",
		"### main.go",
		"Verbose naming.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestWriterHandlesEmptyVerdict(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string { return "ts" })

	path, err := writer.Write(ctx, domain.VerdictArtifact{
		OutputDir:  dir,
		Repository: "",
		Reference:  "",
		Verdict:    domain.Judgment{IsHumanLike: true, Confidence: 50},
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	if filepath.Base(path) != "unknown_unknown_ts.md" {
		t.Fatalf("unexpected filename: %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if !strings.Contains(string(content), "No file judgments recorded.") {
		t.Errorf("expected empty-files notice:\n%s", content)
	}
	if !strings.Contains(string(content), "No reasoning provided.") {
		t.Errorf("expected empty-reasoning notice:\n%s", content)
	}
}
