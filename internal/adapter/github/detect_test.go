package github_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkelsey/agent-check/internal/adapter/github"
)

func TestDetectPullNumber_FromRef(t *testing.T) {
	t.Setenv("GITHUB_REF", "refs/pull/123/merge")
	t.Setenv("GITHUB_EVENT_PATH", "")

	number, err := github.DetectPullNumber()

	require.NoError(t, err)
	assert.Equal(t, 123, number)
}

func TestDetectPullNumber_FromEventPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pull_request": {"number": 77}}`), 0o644))

	t.Setenv("GITHUB_REF", "refs/heads/main")
	t.Setenv("GITHUB_EVENT_PATH", path)

	number, err := github.DetectPullNumber()

	require.NoError(t, err)
	assert.Equal(t, 77, number)
}

func TestDetectPullNumber_NotFound(t *testing.T) {
	t.Setenv("GITHUB_REF", "refs/heads/main")
	t.Setenv("GITHUB_EVENT_PATH", "")

	_, err := github.DetectPullNumber()

	require.Error(t, err)
}
