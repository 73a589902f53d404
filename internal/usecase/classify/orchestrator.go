package classify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/skip"
)

// PullSource fetches PR inputs from the hosting platform. Failures here are
// upstream collaborator failures and propagate unchanged.
type PullSource interface {
	PullChanges(ctx context.Context, owner, repo string, number int) ([]domain.FileChange, error)
	PullContext(ctx context.Context, owner, repo string, number int) (domain.PRContext, string, error)
}

// BranchSource produces the same inputs from a local repository.
type BranchSource interface {
	Changes(ctx context.Context, baseRef, targetRef string, includeUncommitted bool) ([]domain.FileChange, error)
	CommitMessages(ctx context.Context, baseRef, targetRef string) ([]string, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Reporter renders the verdict back to the platform (check run, comment).
type Reporter interface {
	Report(ctx context.Context, req ReportRequest) error
}

// ReportRequest carries everything a reporter needs.
type ReportRequest struct {
	Owner       string
	Repo        string
	Number      int
	HeadSHA     string
	Verdict     domain.Judgment
	Files       []domain.FileJudgment
	PostComment bool
}

// Store persists evaluation history. Optional; the evaluation itself never
// reads back persisted state.
type Store interface {
	SaveEvaluation(ctx context.Context, record EvaluationRecord) error
	Close() error
}

// EvaluationRecord is one completed evaluation for the history store.
type EvaluationRecord struct {
	Repository string
	PullNumber int
	CreatedAt  time.Time
	Verdict    domain.Judgment
	Files      []domain.FileJudgment
}

// ArtifactWriter persists a verdict report to disk.
type ArtifactWriter interface {
	Write(ctx context.Context, artifact domain.VerdictArtifact) (string, error)
}

// Request identifies the pull request to classify.
type Request struct {
	Owner       string
	Repo        string
	Number      int
	PostComment bool
}

// BranchRequest identifies a local branch diff to classify.
type BranchRequest struct {
	BaseRef            string
	TargetRef          string
	IncludeUncommitted bool
}

// Result is the outcome of one evaluation.
type Result struct {
	Verdict    domain.Judgment
	Files      []domain.FileJudgment
	Skipped    bool
	SkipReason string
}

const defaultMaxConcurrent = 4

// Orchestrator wires the evaluator, signal extractor and aggregator into one
// evaluation flow per PR.
type Orchestrator struct {
	evaluator     *FileEvaluator
	signals       *SignalExtractor
	aggregator    *Aggregator
	pulls         PullSource
	branches      BranchSource
	reporter      Reporter
	store         Store
	artifacts     ArtifactWriter
	outputDir     string
	logger        Logger
	maxConcurrent int
}

// OrchestratorOptions carries the optional collaborators.
type OrchestratorOptions struct {
	Pulls         PullSource
	Branches      BranchSource
	Reporter      Reporter
	Store         Store
	Artifacts     ArtifactWriter
	OutputDir     string
	Logger        Logger
	MaxConcurrent int
}

// NewOrchestrator constructs the evaluation orchestrator.
func NewOrchestrator(evaluator *FileEvaluator, tuning domain.Tuning, opts OrchestratorOptions) (*Orchestrator, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("orchestrator requires a file evaluator")
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Orchestrator{
		evaluator:     evaluator,
		signals:       NewSignalExtractor(tuning),
		aggregator:    NewAggregator(tuning),
		pulls:         opts.Pulls,
		branches:      opts.Branches,
		reporter:      opts.Reporter,
		store:         opts.Store,
		artifacts:     opts.Artifacts,
		outputDir:     opts.OutputDir,
		logger:        opts.Logger,
		maxConcurrent: maxConcurrent,
	}, nil
}

// ClassifyPull fetches a PR's changed files and metadata, evaluates them,
// and reports the verdict.
func (o *Orchestrator) ClassifyPull(ctx context.Context, req Request) (Result, error) {
	if o.pulls == nil {
		return Result{}, fmt.Errorf("no pull request source configured")
	}

	changes, err := o.pulls.PullChanges(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		return Result{}, fmt.Errorf("fetch pull request files: %w", err)
	}
	prContext, headSHA, err := o.pulls.PullContext(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		return Result{}, fmt.Errorf("fetch pull request context: %w", err)
	}

	result, err := o.ClassifyChanges(ctx, changes, prContext)
	if err != nil || result.Skipped {
		return result, err
	}

	repository := fmt.Sprintf("%s/%s", req.Owner, req.Repo)
	if o.reporter != nil {
		if err := o.reporter.Report(ctx, ReportRequest{
			Owner:       req.Owner,
			Repo:        req.Repo,
			Number:      req.Number,
			HeadSHA:     headSHA,
			Verdict:     result.Verdict,
			Files:       result.Files,
			PostComment: req.PostComment,
		}); err != nil {
			return result, fmt.Errorf("report verdict: %w", err)
		}
	}

	o.persist(ctx, repository, req.Number, result)
	o.writeArtifact(ctx, repository, fmt.Sprintf("pr-%d", req.Number), result)
	return result, nil
}

// ClassifyBranch evaluates a local branch diff without touching GitHub.
func (o *Orchestrator) ClassifyBranch(ctx context.Context, req BranchRequest) (Result, error) {
	if o.branches == nil {
		return Result{}, fmt.Errorf("no branch source configured")
	}

	changes, err := o.branches.Changes(ctx, req.BaseRef, req.TargetRef, req.IncludeUncommitted)
	if err != nil {
		return Result{}, fmt.Errorf("compute branch diff: %w", err)
	}
	messages, err := o.branches.CommitMessages(ctx, req.BaseRef, req.TargetRef)
	if err != nil {
		return Result{}, fmt.Errorf("collect commit messages: %w", err)
	}

	result, err := o.ClassifyChanges(ctx, changes, domain.PRContext{CommitMessages: messages})
	if err != nil || result.Skipped {
		return result, err
	}

	o.writeArtifact(ctx, req.TargetRef, req.TargetRef, result)
	return result, nil
}

// CurrentBranch resolves the checked-out branch of the local repository.
func (o *Orchestrator) CurrentBranch(ctx context.Context) (string, error) {
	if o.branches == nil {
		return "", fmt.Errorf("no branch source configured")
	}
	return o.branches.CurrentBranch(ctx)
}

// ClassifyChanges is the shared evaluation core: skip check, bounded-parallel
// per-file judging, signal extraction, aggregation. Pure with respect to its
// inputs when the judge is deterministic.
func (o *Orchestrator) ClassifyChanges(ctx context.Context, changes []domain.FileChange, pr domain.PRContext) (Result, error) {
	if check := skip.Check(skip.CheckRequest{
		CommitMessages: pr.CommitMessages,
		PRTitle:        pr.Title,
		PRDescription:  pr.Description,
	}); check.ShouldSkip {
		o.logInfo(ctx, "skip trigger found; classification bypassed", map[string]interface{}{"source": check.Reason})
		return Result{Skipped: true, SkipReason: check.Reason}, nil
	}

	judgments := make([]domain.Judgment, len(changes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, change := range changes {
		i, change := i, change
		g.Go(func() error {
			judgment, err := o.evaluator.EvaluateFile(gctx, change, pr)
			if err != nil {
				return err
			}
			judgments[i] = judgment
			return nil
		})
	}
	// Cancellation invalidates everything: partial results are not a verdict.
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("evaluation aborted: %w", err)
	}

	signals := o.signals.Extract(pr)
	verdict := o.aggregator.Aggregate(judgments, signals)

	files := make([]domain.FileJudgment, len(changes))
	for i, change := range changes {
		files[i] = domain.FileJudgment{Filename: change.Filename, Judgment: judgments[i]}
	}

	o.logInfo(ctx, "evaluation complete", map[string]interface{}{
		"files":      len(files),
		"humanLike":  verdict.IsHumanLike,
		"confidence": verdict.Confidence,
		"indicators": verdict.Indicators,
	})
	if IsOutputTerminal() {
		fmt.Printf("evaluated %d file(s): humanLike=%t confidence=%d\n", len(files), verdict.IsHumanLike, verdict.Confidence)
	}

	return Result{Verdict: verdict, Files: files}, nil
}

func (o *Orchestrator) persist(ctx context.Context, repository string, number int, result Result) {
	if o.store == nil {
		return
	}
	err := o.store.SaveEvaluation(ctx, EvaluationRecord{
		Repository: repository,
		PullNumber: number,
		CreatedAt:  time.Now().UTC(),
		Verdict:    result.Verdict,
		Files:      result.Files,
	})
	if err != nil {
		o.logWarning(ctx, "failed to persist evaluation", map[string]interface{}{"error": err.Error()})
	}
}

func (o *Orchestrator) writeArtifact(ctx context.Context, repository, reference string, result Result) {
	if o.artifacts == nil || o.outputDir == "" {
		return
	}
	path, err := o.artifacts.Write(ctx, domain.VerdictArtifact{
		OutputDir:  o.outputDir,
		Repository: repository,
		Reference:  reference,
		Verdict:    result.Verdict,
		Files:      result.Files,
	})
	if err != nil {
		o.logWarning(ctx, "failed to write verdict artifact", map[string]interface{}{"error": err.Error()})
		return
	}
	o.logInfo(ctx, "verdict artifact written", map[string]interface{}{"path": path})
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.logger != nil {
		o.logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.logger != nil {
		o.logger.LogWarning(ctx, message, fields)
	}
}
