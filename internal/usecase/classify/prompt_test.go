package classify_test

import (
	"strings"
	"testing"

	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		filename string
		expected classify.FileKind
	}{
		{filename: ".github/workflows/ci.yml", expected: classify.FileKindCIWorkflow},
		{filename: ".gitlab-ci.yml", expected: classify.FileKindCIWorkflow},
		{filename: "Jenkinsfile", expected: classify.FileKindCIWorkflow},
		{filename: "README.md", expected: classify.FileKindDocumentation},
		{filename: "docs/guide.rst", expected: classify.FileKindDocumentation},
		{filename: "LICENSE", expected: classify.FileKindDocumentation},
		{filename: "LICENSE.txt", expected: classify.FileKindDocumentation},
		{filename: "config/app.yaml", expected: classify.FileKindConfiguration},
		{filename: "settings.toml", expected: classify.FileKindConfiguration},
		{filename: ".env.production", expected: classify.FileKindConfiguration},
		{filename: "package-lock.json", expected: classify.FileKindBuildArtifact},
		{filename: "go.sum", expected: classify.FileKindBuildArtifact},
		{filename: "dist/bundle.js", expected: classify.FileKindBuildArtifact},
		{filename: "vendor/github.com/x/y/z.go", expected: classify.FileKindBuildArtifact},
		{filename: "api/service.pb.go", expected: classify.FileKindBuildArtifact},
		{filename: "assets/app.min.js", expected: classify.FileKindBuildArtifact},
		{filename: "internal/server/handler.go", expected: classify.FileKindSource},
		{filename: "src/main.rs", expected: classify.FileKindSource},
		{filename: "scripts/deploy.sh", expected: classify.FileKindSource},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := classify.ClassifyFile(tt.filename); got != tt.expected {
				t.Errorf("ClassifyFile(%q) = %s, want %s", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestPromptBuilderIncludesEssentials(t *testing.T) {
	builder := classify.NewPromptBuilder(0, nil)

	prompt := builder.Build(domain.FileChange{
		Filename: ".github/workflows/release.yml",
		Patch:    "@@ -1 +1 @@\n-  uses: actions/checkout@v3\n+  uses: actions/checkout@v4\n",
	}, domain.PRContext{Title: "bump checkout action"})

	for _, want := range []string{
		`"isHumanLike"`,
		".github/workflows/release.yml",
		"ci-workflow",
		"bump checkout action",
		"actions/checkout@v4",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestPromptBuilderTruncatesPatch(t *testing.T) {
	truncate := func(text string, maxTokens int) string {
		if maxTokens > 0 && len(text) > maxTokens {
			return text[:maxTokens]
		}
		return text
	}
	builder := classify.NewPromptBuilder(10, truncate)

	prompt := builder.Build(domain.FileChange{
		Filename: "big.go",
		Patch:    strings.Repeat("+padding line\n", 100),
	}, domain.PRContext{})

	if strings.Contains(prompt, strings.Repeat("+padding line\n", 100)) {
		t.Error("patch was not passed through the truncate function")
	}
}
