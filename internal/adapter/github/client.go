// Package github talks to the GitHub REST API for pull request data,
// check runs and comments.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmhttp "github.com/dkelsey/agent-check/internal/adapter/llm/http"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	// filesPerPage is the GitHub maximum for the PR files listing.
	filesPerPage = 100
)

// Client is an HTTP client for the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: llmhttp.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the retry policy.
func (c *Client) SetRetryConfig(config llmhttp.RetryConfig) {
	c.retryConf = config
}

// do executes one API call with retries, decoding the JSON response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var jsonData []byte
	if payload != nil {
		var err error
		jsonData, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var resp *http.Response
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var body io.Reader
		if jsonData != nil {
			body = bytes.NewReader(jsonData)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, url, body)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &llmhttp.Error{
					Type:       llmhttp.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Provider:   providerName,
				}
			}
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// GetPull fetches pull request metadata.
func (c *Client) GetPull(ctx context.Context, owner, repo string, number int) (*Pull, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	var pull Pull
	if err := c.do(ctx, "GET", url, nil, &pull); err != nil {
		return nil, err
	}
	return &pull, nil
}

// ListPullFiles fetches the changed files of a pull request, following
// pagination until all pages are consumed.
func (c *Client) ListPullFiles(ctx context.Context, owner, repo string, number int) ([]PullFile, error) {
	var all []PullFile
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.baseURL, owner, repo, number, filesPerPage, page)

		var files []PullFile
		if err := c.do(ctx, "GET", url, nil, &files); err != nil {
			return nil, err
		}
		all = append(all, files...)
		if len(files) < filesPerPage {
			return all, nil
		}
	}
}

// ListCommitMessages fetches the commit messages of a pull request.
func (c *Client) ListCommitMessages(ctx context.Context, owner, repo string, number int) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/commits?per_page=%d",
		c.baseURL, owner, repo, number, filesPerPage)

	var commits []CommitEntry
	if err := c.do(ctx, "GET", url, nil, &commits); err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(commits))
	for _, entry := range commits {
		messages = append(messages, entry.Commit.Message)
	}
	return messages, nil
}

// CreateCheckRun creates a completed check run on the given commit.
func (c *Client) CreateCheckRun(ctx context.Context, owner, repo string, run CheckRunRequest) (*CheckRunResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/check-runs", c.baseURL, owner, repo)

	var created CheckRunResponse
	if err := c.do(ctx, "POST", url, run, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateIssueComment posts a comment on the pull request conversation.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueCommentResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)

	var created IssueCommentResponse
	if err := c.do(ctx, "POST", url, IssueCommentRequest{Body: body}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
