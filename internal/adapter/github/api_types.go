package github

// GitHub REST API types.
// See: https://docs.github.com/en/rest

// Pull is the subset of the pull request object we consume.
type Pull struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	User   User   `json:"user"`
	Head   Ref    `json:"head"`
}

// Ref identifies one side of a pull request.
type Ref struct {
	SHA string `json:"sha"`
	Ref string `json:"ref"`
}

// User represents a GitHub user.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// PullFile is one entry from GET /repos/{owner}/{repo}/pulls/{number}/files.
type PullFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"` // added, modified, removed, renamed
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"` // empty for binary files
}

// CommitEntry is one entry from GET /repos/{owner}/{repo}/pulls/{number}/commits.
type CommitEntry struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}

// CheckRunRequest is the request body for POST /repos/{owner}/{repo}/check-runs.
type CheckRunRequest struct {
	Name       string         `json:"name"`
	HeadSHA    string         `json:"head_sha"`
	Status     string         `json:"status"`     // queued, in_progress, completed
	Conclusion string         `json:"conclusion"` // success, failure, neutral, ...
	Output     CheckRunOutput `json:"output"`
}

// CheckRunOutput carries the title and markdown body of a check run.
type CheckRunOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Text    string `json:"text,omitempty"`
}

// CheckRunResponse is the created check run.
type CheckRunResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// IssueCommentRequest is the request body for POST /repos/{owner}/{repo}/issues/{number}/comments.
type IssueCommentRequest struct {
	Body string `json:"body"`
}

// IssueCommentResponse is the created comment.
type IssueCommentResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// GitHubErrorResponse represents an error response from the GitHub API.
type GitHubErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
