package anthropic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkelsey/agent-check/internal/adapter/llm/anthropic"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

type fakeClient struct {
	lastPrompt  string
	lastOptions anthropic.CallOptions
	response    *anthropic.APIResponse
	err         error
}

func (f *fakeClient) Call(ctx context.Context, prompt string, options anthropic.CallOptions) (*anthropic.APIResponse, error) {
	f.lastPrompt = prompt
	f.lastOptions = options
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestNewJudge_RequiresClient(t *testing.T) {
	_, err := anthropic.NewJudge(nil)
	require.Error(t, err)
}

func TestJudge_ReturnsRawText(t *testing.T) {
	client := &fakeClient{
		response: &anthropic.APIResponse{Text: `{"isHumanLike": true, "confidence": 70}`},
	}
	judge, err := anthropic.NewJudge(client)
	require.NoError(t, err)

	text, err := judge.Judge(context.Background(), classify.JudgeRequest{
		Filename:  "main.go",
		Prompt:    "classify this",
		MaxTokens: 512,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"isHumanLike": true, "confidence": 70}`, text)
	assert.Equal(t, "classify this", client.lastPrompt)
	assert.Equal(t, 512, client.lastOptions.MaxTokens)
}

func TestJudge_WrapsClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	judge, err := anthropic.NewJudge(client)
	require.NoError(t, err)

	_, err = judge.Judge(context.Background(), classify.JudgeRequest{Prompt: "p", MaxTokens: 64})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
}
