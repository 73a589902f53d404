package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

const checkRunName = "agent-check"

// Reporter implements the classify.Reporter port: it publishes the verdict
// as a check run on the head commit and optionally as a PR comment.
type Reporter struct {
	api API
}

// NewReporter constructs a Reporter backed by the given API client.
func NewReporter(api API) *Reporter {
	return &Reporter{api: api}
}

// Report publishes the verdict. The check run concludes success when the
// change looks AI-authored and failure when it looks human-written, so
// branch protection can key off either polarity.
func (r *Reporter) Report(ctx context.Context, req classify.ReportRequest) error {
	conclusion := "failure"
	if !req.Verdict.IsHumanLike {
		conclusion = "success"
	}

	summary := verdictSummary(req.Verdict)
	body := verdictMarkdown(req.Verdict, req.Files)

	if req.HeadSHA != "" {
		_, err := r.api.CreateCheckRun(ctx, req.Owner, req.Repo, CheckRunRequest{
			Name:       checkRunName,
			HeadSHA:    req.HeadSHA,
			Status:     "completed",
			Conclusion: conclusion,
			Output: CheckRunOutput{
				Title:   summary,
				Summary: body,
			},
		})
		if err != nil {
			return fmt.Errorf("create check run: %w", err)
		}
	}

	if req.PostComment {
		comment := fmt.Sprintf("## %s\n\n%s", checkRunName, body)
		if _, err := r.api.CreateIssueComment(ctx, req.Owner, req.Repo, req.Number, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
	}

	return nil
}

func verdictSummary(verdict domain.Judgment) string {
	author := "AI agent"
	if verdict.IsHumanLike {
		author = "human"
	}
	return fmt.Sprintf("Likely authored by a %s (%d%% confidence)", author, verdict.Confidence)
}

func verdictMarkdown(verdict domain.Judgment, files []domain.FileJudgment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s**\n\n", verdictSummary(verdict))
	if verdict.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n\n", verdict.Reasoning)
	}

	if len(verdict.Indicators) > 0 {
		b.WriteString("**Indicators:** ")
		b.WriteString(strings.Join(verdict.Indicators, ", "))
		b.WriteString("\n\n")
	}

	if len(files) > 0 {
		b.WriteString("| File | Verdict | Confidence |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, f := range files {
			verdictLabel := "AI"
			if f.Judgment.IsHumanLike {
				verdictLabel = "human"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %d%% |\n", f.Filename, verdictLabel, f.Judgment.Confidence)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
