package github

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

var pullRefPattern = regexp.MustCompile(`refs/pull/(\d+)/`)

// DetectPullNumber resolves the pull request number from the GitHub Actions
// environment: first GITHUB_REF (refs/pull/N/merge), then the event payload
// at GITHUB_EVENT_PATH.
func DetectPullNumber() (int, error) {
	if ref := os.Getenv("GITHUB_REF"); ref != "" {
		if m := pullRefPattern.FindStringSubmatch(ref); m != nil {
			number, err := strconv.Atoi(m[1])
			if err == nil && number > 0 {
				return number, nil
			}
		}
	}

	if path := os.Getenv("GITHUB_EVENT_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read event payload: %w", err)
		}
		var event struct {
			PullRequest struct {
				Number int `json:"number"`
			} `json:"pull_request"`
			Number int `json:"number"`
		}
		if err := json.Unmarshal(data, &event); err != nil {
			return 0, fmt.Errorf("parse event payload: %w", err)
		}
		if event.PullRequest.Number > 0 {
			return event.PullRequest.Number, nil
		}
		if event.Number > 0 {
			return event.Number, nil
		}
	}

	return 0, fmt.Errorf("pull request number not found in environment (set GITHUB_REF or GITHUB_EVENT_PATH, or pass the number explicitly)")
}
