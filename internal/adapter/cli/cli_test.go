package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dkelsey/agent-check/internal/adapter/cli"
	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

type stubPullClassifier struct {
	lastRequest classify.Request
	result      classify.Result
	err         error
}

func (s *stubPullClassifier) ClassifyPull(ctx context.Context, req classify.Request) (classify.Result, error) {
	s.lastRequest = req
	return s.result, s.err
}

type stubBranchClassifier struct {
	lastRequest   classify.BranchRequest
	currentBranch string
	result        classify.Result
	err           error
}

func (s *stubBranchClassifier) ClassifyBranch(ctx context.Context, req classify.BranchRequest) (classify.Result, error) {
	s.lastRequest = req
	return s.result, s.err
}

func (s *stubBranchClassifier) CurrentBranch(ctx context.Context) (string, error) {
	if s.currentBranch == "" {
		return "", errors.New("detached HEAD")
	}
	return s.currentBranch, nil
}

func agentResult(confidence int) classify.Result {
	return classify.Result{
		Verdict: domain.Judgment{
			IsHumanLike: false,
			Confidence:  confidence,
			Reasoning:   "Uniform style.",
			Indicators:  []string{"perfect-conventional-commits"},
		},
	}
}

func runCommand(t *testing.T, deps cli.Dependencies, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Args = cli.Arguments{OutWriter: &out, ErrWriter: &errOut}

	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, _, err := runCommand(t, cli.Dependencies{Version: "v1.2.3"}, "--version")

	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("err = %v, want ErrVersionRequested", err)
	}
	if !strings.Contains(out, "v1.2.3") {
		t.Errorf("output %q missing version", out)
	}
}

func TestClassifyPr_PositionalNumber(t *testing.T) {
	pulls := &stubPullClassifier{result: agentResult(85)}

	out, _, err := runCommand(t, cli.Dependencies{
		PullClassifier: pulls,
		DefaultOwner:   "octocat",
		DefaultRepo:    "demo",
	}, "classify", "pr", "42")

	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if pulls.lastRequest.Number != 42 || pulls.lastRequest.Owner != "octocat" {
		t.Errorf("unexpected request: %+v", pulls.lastRequest)
	}
	if !strings.Contains(out, "AI agent (85% confidence)") {
		t.Errorf("output %q missing verdict", out)
	}
	if !strings.Contains(out, "perfect-conventional-commits") {
		t.Errorf("output %q missing indicator", out)
	}
}

func TestClassifyPr_AutoDetectsNumber(t *testing.T) {
	pulls := &stubPullClassifier{result: agentResult(80)}

	_, _, err := runCommand(t, cli.Dependencies{
		PullClassifier: pulls,
		DetectPull:     func() (int, error) { return 7, nil },
		DefaultOwner:   "octocat",
		DefaultRepo:    "demo",
	}, "classify", "pr")

	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if pulls.lastRequest.Number != 7 {
		t.Errorf("number = %d, want 7 from auto-detection", pulls.lastRequest.Number)
	}
}

func TestClassifyPr_CommentFlagOverridesConfig(t *testing.T) {
	pulls := &stubPullClassifier{result: agentResult(80)}

	_, _, err := runCommand(t, cli.Dependencies{
		PullClassifier: pulls,
		DefaultOwner:   "octocat",
		DefaultRepo:    "demo",
		PostComment:    false,
	}, "classify", "pr", "42", "--comment")

	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !pulls.lastRequest.PostComment {
		t.Error("expected --comment to enable comment posting")
	}
}

func TestClassifyPr_FailOnHuman(t *testing.T) {
	pulls := &stubPullClassifier{result: classify.Result{
		Verdict: domain.Judgment{IsHumanLike: true, Confidence: 70},
	}}

	_, _, err := runCommand(t, cli.Dependencies{
		PullClassifier: pulls,
		DefaultOwner:   "octocat",
		DefaultRepo:    "demo",
	}, "classify", "pr", "42", "--fail-on-human")

	if !errors.Is(err, cli.ErrHumanVerdict) {
		t.Fatalf("err = %v, want ErrHumanVerdict", err)
	}
}

func TestClassifyPr_SkippedNeverFails(t *testing.T) {
	pulls := &stubPullClassifier{result: classify.Result{
		Skipped:    true,
		SkipReason: "skip marker found in PR description",
	}}

	out, _, err := runCommand(t, cli.Dependencies{
		PullClassifier: pulls,
		DefaultOwner:   "octocat",
		DefaultRepo:    "demo",
		FailOnHuman:    true,
	}, "classify", "pr", "42")

	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "skipped: skip marker found in PR description") {
		t.Errorf("output %q missing skip notice", out)
	}
}

func TestClassifyPr_RequiresRepository(t *testing.T) {
	pulls := &stubPullClassifier{result: agentResult(80)}

	_, _, err := runCommand(t, cli.Dependencies{PullClassifier: pulls}, "classify", "pr", "42")

	if err == nil || !strings.Contains(err.Error(), "repository not specified") {
		t.Fatalf("err = %v, want repository error", err)
	}
}

func TestClassifyBranch_DetectsTarget(t *testing.T) {
	branches := &stubBranchClassifier{
		currentBranch: "feature",
		result:        agentResult(75),
	}

	_, _, err := runCommand(t, cli.Dependencies{BranchClassifier: branches},
		"classify", "branch", "--base", "develop", "--include-uncommitted")

	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if branches.lastRequest.TargetRef != "feature" {
		t.Errorf("target = %q, want feature from detection", branches.lastRequest.TargetRef)
	}
	if branches.lastRequest.BaseRef != "develop" {
		t.Errorf("base = %q, want develop", branches.lastRequest.BaseRef)
	}
	if !branches.lastRequest.IncludeUncommitted {
		t.Error("expected include-uncommitted to pass through")
	}
}

func TestClassifyBranch_PositionalTarget(t *testing.T) {
	branches := &stubBranchClassifier{result: agentResult(75)}

	_, _, err := runCommand(t, cli.Dependencies{BranchClassifier: branches},
		"classify", "branch", "feature-x")

	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if branches.lastRequest.TargetRef != "feature-x" {
		t.Errorf("target = %q, want feature-x", branches.lastRequest.TargetRef)
	}
}

func TestClassifyBranch_ErrorsPropagate(t *testing.T) {
	branches := &stubBranchClassifier{
		currentBranch: "feature",
		err:           errors.New("evaluation aborted"),
	}

	_, _, err := runCommand(t, cli.Dependencies{BranchClassifier: branches}, "classify", "branch")

	if err == nil || !strings.Contains(err.Error(), "evaluation aborted") {
		t.Fatalf("err = %v, want evaluation aborted", err)
	}
}
