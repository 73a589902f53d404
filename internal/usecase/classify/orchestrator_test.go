package classify_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

// tableJudge returns a canned JSON judgment per filename; it is deterministic
// by construction.
type tableJudge struct {
	mu        sync.Mutex
	byFile    map[string]string
	inFlight  int
	peak      int
	callDelay time.Duration
}

func (j *tableJudge) Judge(ctx context.Context, req classify.JudgeRequest) (string, error) {
	j.mu.Lock()
	j.inFlight++
	if j.inFlight > j.peak {
		j.peak = j.inFlight
	}
	response, ok := j.byFile[req.Filename]
	j.mu.Unlock()

	if j.callDelay > 0 {
		select {
		case <-time.After(j.callDelay):
		case <-ctx.Done():
			j.done()
			return "", ctx.Err()
		}
	}
	j.done()
	if !ok {
		return "", fmt.Errorf("no canned response for %s", req.Filename)
	}
	return response, nil
}

func (j *tableJudge) done() {
	j.mu.Lock()
	j.inFlight--
	j.mu.Unlock()
}

type fakePullSource struct {
	changes []domain.FileChange
	pr      domain.PRContext
	headSHA string
	err     error
}

func (f *fakePullSource) PullChanges(ctx context.Context, owner, repo string, number int) ([]domain.FileChange, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.changes, nil
}

func (f *fakePullSource) PullContext(ctx context.Context, owner, repo string, number int) (domain.PRContext, string, error) {
	if f.err != nil {
		return domain.PRContext{}, "", f.err
	}
	return f.pr, f.headSHA, nil
}

type recordingReporter struct {
	requests []classify.ReportRequest
}

func (r *recordingReporter) Report(ctx context.Context, req classify.ReportRequest) error {
	r.requests = append(r.requests, req)
	return nil
}

func judgmentJSON(humanLike bool, confidence int) string {
	return fmt.Sprintf(`{"isHumanLike": %t, "confidence": %d, "reasoning": "stubbed"}`, humanLike, confidence)
}

func newTestOrchestrator(t *testing.T, judge classify.Judge, opts classify.OrchestratorOptions) *classify.Orchestrator {
	t.Helper()
	evaluator, err := classify.NewFileEvaluator(judge, classify.EvaluatorOptions{
		AssumeHumanOnError: true,
		PromptBuilder:      classify.NewPromptBuilder(0, nil),
	})
	if err != nil {
		t.Fatalf("NewFileEvaluator: %v", err)
	}
	orchestrator, err := classify.NewOrchestrator(evaluator, domain.DefaultTuning(), opts)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orchestrator
}

func TestClassifyPullEndToEnd(t *testing.T) {
	judge := &tableJudge{byFile: map[string]string{
		"a.go": judgmentJSON(false, 80),
		"b.go": judgmentJSON(false, 80),
		"c.go": judgmentJSON(true, 60),
	}}
	source := &fakePullSource{
		changes: []domain.FileChange{
			{Filename: "a.go", Patch: "+a\n"},
			{Filename: "b.go", Patch: "+b\n"},
			{Filename: "c.go", Patch: "+c\n"},
		},
		pr:      domain.PRContext{Title: "Add feature", Description: "adds the feature", Author: "octocat"},
		headSHA: "abc123",
	}
	reporter := &recordingReporter{}

	orchestrator := newTestOrchestrator(t, judge, classify.OrchestratorOptions{
		Pulls:    source,
		Reporter: reporter,
	})

	result, err := orchestrator.ClassifyPull(context.Background(), classify.Request{
		Owner: "acme", Repo: "widgets", Number: 7, PostComment: true,
	})
	if err != nil {
		t.Fatalf("ClassifyPull: %v", err)
	}
	if result.Verdict.IsHumanLike {
		t.Errorf("verdict = human, want agent (reasoning: %s)", result.Verdict.Reasoning)
	}
	if len(result.Files) != 3 {
		t.Fatalf("len(Files) = %d, want 3", len(result.Files))
	}
	if result.Files[0].Filename != "a.go" {
		t.Errorf("file order not preserved: %v", result.Files)
	}

	if len(reporter.requests) != 1 {
		t.Fatalf("reporter calls = %d, want 1", len(reporter.requests))
	}
	report := reporter.requests[0]
	if report.HeadSHA != "abc123" || report.Number != 7 || !report.PostComment {
		t.Errorf("report = %+v", report)
	}
}

func TestClassifyPullIsIdempotent(t *testing.T) {
	judge := &tableJudge{byFile: map[string]string{
		"a.go": judgmentJSON(false, 90),
		"b.go": judgmentJSON(true, 40),
	}}
	source := &fakePullSource{
		changes: []domain.FileChange{
			{Filename: "a.go", Patch: "+a\n"},
			{Filename: "b.go", Patch: "+b\n"},
		},
		pr: domain.PRContext{Title: "fix typo"},
	}

	orchestrator := newTestOrchestrator(t, judge, classify.OrchestratorOptions{Pulls: source})

	first, err := orchestrator.ClassifyPull(context.Background(), classify.Request{Owner: "o", Repo: "r", Number: 1})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := orchestrator.ClassifyPull(context.Background(), classify.Request{Owner: "o", Repo: "r", Number: 1})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ with a deterministic judge:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClassifyChangesBoundsConcurrency(t *testing.T) {
	byFile := make(map[string]string, 12)
	changes := make([]domain.FileChange, 0, 12)
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("f%d.go", i)
		byFile[name] = judgmentJSON(true, 60)
		changes = append(changes, domain.FileChange{Filename: name, Patch: "+x\n"})
	}
	judge := &tableJudge{byFile: byFile, callDelay: 20 * time.Millisecond}

	orchestrator := newTestOrchestrator(t, judge, classify.OrchestratorOptions{MaxConcurrent: 4})

	if _, err := orchestrator.ClassifyChanges(context.Background(), changes, domain.PRContext{Description: "d"}); err != nil {
		t.Fatalf("ClassifyChanges: %v", err)
	}
	if judge.peak > 4 {
		t.Errorf("peak concurrent judge calls = %d, want <= 4", judge.peak)
	}
}

func TestClassifyChangesSkipTrigger(t *testing.T) {
	judge := &tableJudge{byFile: map[string]string{}}
	orchestrator := newTestOrchestrator(t, judge, classify.OrchestratorOptions{})

	result, err := orchestrator.ClassifyChanges(context.Background(),
		[]domain.FileChange{{Filename: "a.go", Patch: "+x\n"}},
		domain.PRContext{Description: "WIP\n\n[skip agent-check]"})
	if err != nil {
		t.Fatalf("ClassifyChanges: %v", err)
	}
	if !result.Skipped {
		t.Fatal("expected skip")
	}
	if result.SkipReason != "PR description" {
		t.Errorf("SkipReason = %q, want %q", result.SkipReason, "PR description")
	}
}

func TestClassifyChangesCancellation(t *testing.T) {
	judge := &tableJudge{
		byFile:    map[string]string{"a.go": judgmentJSON(true, 60), "b.go": judgmentJSON(true, 60)},
		callDelay: time.Second,
	}
	orchestrator := newTestOrchestrator(t, judge, classify.OrchestratorOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := orchestrator.ClassifyChanges(ctx,
		[]domain.FileChange{{Filename: "a.go", Patch: "+a\n"}, {Filename: "b.go", Patch: "+b\n"}},
		domain.PRContext{Description: "d"})
	if err == nil {
		t.Fatal("cancelled evaluation must not produce a verdict")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestClassifyPullPropagatesSourceErrors(t *testing.T) {
	upstreamErr := errors.New("github: rate limit exceeded")
	orchestrator := newTestOrchestrator(t, &tableJudge{}, classify.OrchestratorOptions{
		Pulls: &fakePullSource{err: upstreamErr},
	})

	_, err := orchestrator.ClassifyPull(context.Background(), classify.Request{Owner: "o", Repo: "r", Number: 1})
	if !errors.Is(err, upstreamErr) {
		t.Errorf("err = %v, want wrapped upstream error", err)
	}
}
