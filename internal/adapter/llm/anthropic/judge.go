package anthropic

import (
	"context"
	"fmt"

	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

const providerName = "anthropic"

// Client abstracts the Anthropic HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Judge implements the classify.Judge port on top of the Messages API.
type Judge struct {
	client Client
}

// NewJudge constructs a Judge backed by the supplied client.
func NewJudge(client Client) (*Judge, error) {
	if client == nil {
		return nil, fmt.Errorf("anthropic client missing")
	}
	return &Judge{client: client}, nil
}

// Judge sends the classification prompt and returns the raw model text.
func (j *Judge) Judge(ctx context.Context, req classify.JudgeRequest) (string, error) {
	resp, err := j.client.Call(ctx, req.Prompt, CallOptions{
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	return resp.Text, nil
}
