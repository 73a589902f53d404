package classify

import (
	"fmt"
	"path"
	"strings"

	"github.com/dkelsey/agent-check/internal/domain"
)

// FileKind is a coarse classification of a changed file, used to pick a
// contextual note for the judge prompt.
type FileKind int

const (
	FileKindSource FileKind = iota
	FileKindDocumentation
	FileKindConfiguration
	FileKindCIWorkflow
	FileKindBuildArtifact
)

// String returns the kind's prompt-facing name.
func (k FileKind) String() string {
	switch k {
	case FileKindDocumentation:
		return "documentation"
	case FileKindConfiguration:
		return "configuration"
	case FileKindCIWorkflow:
		return "ci-workflow"
	case FileKindBuildArtifact:
		return "build-artifact"
	default:
		return "source"
	}
}

var generatedSuffixes = []string{".pb.go", ".min.js", ".min.css", "_generated.go", ".gen.go"}

var lockFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"go.sum":            true,
	"Cargo.lock":        true,
	"poetry.lock":       true,
}

// ClassifyFile maps a filename onto a FileKind. CI paths win over the config
// extensions they share.
func ClassifyFile(filename string) FileKind {
	normalized := strings.ReplaceAll(filename, "\\", "/")
	base := path.Base(normalized)
	ext := strings.ToLower(path.Ext(base))

	switch {
	case strings.Contains(normalized, ".github/workflows/"),
		base == ".gitlab-ci.yml",
		base == "Jenkinsfile":
		return FileKindCIWorkflow
	case lockFiles[base],
		strings.HasPrefix(normalized, "dist/"),
		strings.HasPrefix(normalized, "vendor/"),
		strings.Contains(normalized, "node_modules/"),
		hasGeneratedSuffix(base):
		return FileKindBuildArtifact
	case ext == ".md" || ext == ".rst" || ext == ".txt",
		strings.HasPrefix(base, "LICENSE"),
		strings.HasPrefix(normalized, "docs/"):
		return FileKindDocumentation
	case ext == ".yml" || ext == ".yaml" || ext == ".json" || ext == ".toml" || ext == ".ini",
		base == ".env" || strings.HasPrefix(base, ".env."):
		return FileKindConfiguration
	default:
		return FileKindSource
	}
}

func hasGeneratedSuffix(base string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

func kindNote(kind FileKind) string {
	switch kind {
	case FileKindDocumentation:
		return "This is a documentation file. Weigh prose style, heading structure, and completeness rather than code patterns."
	case FileKindConfiguration:
		return "This is a configuration file. Weigh key naming, comment style, and whether values look hand-tuned or templated."
	case FileKindCIWorkflow:
		return "This is a CI workflow file. Weigh step naming, pinned versions, and boilerplate patterns typical of generated pipelines."
	case FileKindBuildArtifact:
		return "This is a build artifact or lockfile. Its content is machine-produced either way; weigh only whether a human would have committed it in this form."
	default:
		return "This is a source code file. Weigh naming verbosity, comment density, error-handling uniformity, and other authorship tells."
	}
}

// TruncateFunc bounds text to a token budget. Injected so the usecase stays
// free of tokenizer dependencies.
type TruncateFunc func(text string, maxTokens int) string

// PromptBuilder renders the fixed judge instruction plus a file's diff.
type PromptBuilder struct {
	maxPatchTokens int
	truncate       TruncateFunc
}

// NewPromptBuilder constructs a prompt builder. A nil truncate function or a
// non-positive budget disables truncation.
func NewPromptBuilder(maxPatchTokens int, truncate TruncateFunc) *PromptBuilder {
	return &PromptBuilder{maxPatchTokens: maxPatchTokens, truncate: truncate}
}

// Build assembles the judge prompt for one changed file.
func (b *PromptBuilder) Build(change domain.FileChange, pr domain.PRContext) string {
	kind := ClassifyFile(change.Filename)

	patch := change.Patch
	if b.truncate != nil && b.maxPatchTokens > 0 {
		patch = b.truncate(patch, b.maxPatchTokens)
	}

	var builder strings.Builder
	builder.WriteString("Decide whether the following file change was authored by an AI coding agent or a human.\n\n")
	builder.WriteString("Respond with a single JSON object and nothing else:\n")
	builder.WriteString(`{"isHumanLike": <bool>, "confidence": <0-100>, "reasoning": "<short explanation>", "indicators": ["<tag>", ...]}`)
	builder.WriteString("\n\nConfidence expresses how sure you are of the stated isHumanLike value. Leave indicators empty when nothing notable fired.\n\n")
	builder.WriteString(fmt.Sprintf("File: %s (%s)\n", change.Filename, kind))
	builder.WriteString(fmt.Sprintf("Note: %s\n", kindNote(kind)))
	if title := strings.TrimSpace(pr.Title); title != "" {
		builder.WriteString(fmt.Sprintf("Pull request title: %s\n", title))
	}
	builder.WriteString("\nUnified diff:\n```diff\n")
	builder.WriteString(patch)
	builder.WriteString("\n```\n")
	return builder.String()
}
