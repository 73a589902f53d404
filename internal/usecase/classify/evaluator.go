package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkelsey/agent-check/internal/domain"
)

// Judge is the outbound port to the LLM. It returns the raw response text;
// normalization into a Judgment happens here, where it can be tested without
// a provider.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (string, error)
}

// JudgeRequest is the payload for one judge call.
type JudgeRequest struct {
	Filename  string
	Prompt    string
	MaxTokens int
}

// Redactor scrubs secrets from prompt text before it leaves the process.
type Redactor interface {
	Redact(input string) (string, error)
}

// Logger is the minimal structured logging port for this package.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

const (
	defaultCallTimeout    = 60 * time.Second
	defaultJudgeMaxTokens = 1024
)

// EvaluatorOptions configures a FileEvaluator.
type EvaluatorOptions struct {
	// AssumeHumanOnError selects the fallback polarity when a judge call
	// fails. True is the shipped default: a judge outage must not flag
	// human authors as agents.
	AssumeHumanOnError bool

	// CallTimeout bounds one judge call. Zero uses the default.
	CallTimeout time.Duration

	// PromptBuilder renders the per-file prompt. Required.
	PromptBuilder *PromptBuilder

	// Redactor, when set, scrubs credentials from the rendered prompt
	// before it is sent to the judge.
	Redactor Redactor

	// Logger is optional.
	Logger Logger
}

// FileEvaluator produces one Judgment per changed file.
type FileEvaluator struct {
	judge       Judge
	prompts     *PromptBuilder
	redactor    Redactor
	assumeHuman bool
	callTimeout time.Duration
	logger      Logger
}

// NewFileEvaluator constructs an evaluator. A missing judge or prompt
// builder is a construction-time error, never deferred to first use.
func NewFileEvaluator(judge Judge, opts EvaluatorOptions) (*FileEvaluator, error) {
	if judge == nil {
		return nil, fmt.Errorf("file evaluator requires a judge")
	}
	if opts.PromptBuilder == nil {
		return nil, fmt.Errorf("file evaluator requires a prompt builder")
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &FileEvaluator{
		judge:       judge,
		prompts:     opts.PromptBuilder,
		redactor:    opts.Redactor,
		assumeHuman: opts.AssumeHumanOnError,
		callTimeout: timeout,
		logger:      opts.Logger,
	}, nil
}

// EvaluateFile judges a single file change. Judge failures never propagate:
// the returned error is non-nil only when the caller's context is done, in
// which case the partial result is meaningless and must not be reported.
func (e *FileEvaluator) EvaluateFile(ctx context.Context, change domain.FileChange, pr domain.PRContext) (domain.Judgment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Judgment{}, err
	}

	if strings.TrimSpace(change.Patch) == "" || isBinaryPatch(change.Patch) {
		return domain.Judgment{
			IsHumanLike: true,
			Confidence:  50,
			Reasoning:   fmt.Sprintf("no judgeable diff content for %s; treated as neutral", change.Filename),
		}, nil
	}

	prompt := e.prompts.Build(change, pr)
	if e.redactor != nil {
		redacted, err := e.redactor.Redact(prompt)
		if err != nil {
			// The prompt never ships unredacted. A scrubbing failure
			// degrades the same way a judge outage does.
			if e.logger != nil {
				e.logger.LogWarning(ctx, "prompt redaction failed; using fallback judgment", map[string]interface{}{
					"filename": change.Filename,
					"error":    err.Error(),
				})
			}
			return e.fallbackJudgment(change.Filename, err), nil
		}
		prompt = redacted
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	text, err := e.judge.Judge(callCtx, JudgeRequest{
		Filename:  change.Filename,
		Prompt:    prompt,
		MaxTokens: defaultJudgeMaxTokens,
	})
	if err != nil {
		// Overall cancellation aborts; a per-call failure degrades.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Judgment{}, ctxErr
		}
		if e.logger != nil {
			e.logger.LogWarning(ctx, "judge call failed; using fallback judgment", map[string]interface{}{
				"filename": change.Filename,
				"error":    err.Error(),
			})
		}
		return e.fallbackJudgment(change.Filename, err), nil
	}

	return NormalizeJudgment(text), nil
}

func (e *FileEvaluator) fallbackJudgment(filename string, cause error) domain.Judgment {
	return domain.Judgment{
		IsHumanLike: e.assumeHuman,
		Confidence:  50,
		Reasoning:   fmt.Sprintf("judge evaluation failed for %s: %v", filename, cause),
		Indicators:  []string{domain.IndicatorEvaluationError},
	}
}

// isBinaryPatch matches git's binary diff markers.
func isBinaryPatch(patch string) bool {
	return strings.Contains(patch, "Binary files") || strings.Contains(patch, "GIT binary patch")
}
