package github

import (
	"context"

	"github.com/dkelsey/agent-check/internal/domain"
)

// API abstracts the GitHub client calls the source and reporter need.
type API interface {
	GetPull(ctx context.Context, owner, repo string, number int) (*Pull, error)
	ListPullFiles(ctx context.Context, owner, repo string, number int) ([]PullFile, error)
	ListCommitMessages(ctx context.Context, owner, repo string, number int) ([]string, error)
	CreateCheckRun(ctx context.Context, owner, repo string, run CheckRunRequest) (*CheckRunResponse, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueCommentResponse, error)
}

// Source implements the classify.PullSource port against the REST API.
type Source struct {
	api API
}

// NewSource constructs a Source backed by the given API client.
func NewSource(api API) *Source {
	return &Source{api: api}
}

// PullChanges fetches the changed files of the pull request. Files whose
// patch is empty (binary files, very large diffs) are kept so that the
// evaluator can degrade them to a neutral judgment.
func (s *Source) PullChanges(ctx context.Context, owner, repo string, number int) ([]domain.FileChange, error) {
	files, err := s.api.ListPullFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	changes := make([]domain.FileChange, 0, len(files))
	for _, f := range files {
		changes = append(changes, domain.FileChange{
			Filename: f.Filename,
			Patch:    f.Patch,
		})
	}
	return changes, nil
}

// PullContext fetches the PR metadata used for signal extraction. The second
// return value is the head commit SHA, needed for check run reporting.
func (s *Source) PullContext(ctx context.Context, owner, repo string, number int) (domain.PRContext, string, error) {
	pull, err := s.api.GetPull(ctx, owner, repo, number)
	if err != nil {
		return domain.PRContext{}, "", err
	}

	messages, err := s.api.ListCommitMessages(ctx, owner, repo, number)
	if err != nil {
		return domain.PRContext{}, "", err
	}

	return domain.PRContext{
		Title:          pull.Title,
		Description:    pull.Body,
		CommitMessages: messages,
		Author:         pull.User.Login,
	}, pull.Head.SHA, nil
}
