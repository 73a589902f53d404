// Package git reads branch diffs and commit messages from a local
// repository, backed by go-git.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/dkelsey/agent-check/internal/domain"
)

// Engine implements the BranchSource port backed by go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs a Git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// Changes returns the per-file diffs between the supplied refs. With
// includeUncommitted, working-tree changes relative to base are used
// instead of the committed target.
func (e *Engine) Changes(ctx context.Context, baseRef, targetRef string, includeUncommitted bool) ([]domain.FileChange, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref: %w", err)
	}

	if includeUncommitted {
		return diffWithWorkingTree(ctx, e.repoDir, baseRef)
	}

	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref: %w", err)
	}

	patch, err := baseCommit.Patch(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	changes := make([]domain.FileChange, 0, len(patch.FilePatches()))
	for _, fp := range patch.FilePatches() {
		patchText, err := encodeFilePatch(fp)
		if err != nil {
			return nil, fmt.Errorf("encode patch: %w", err)
		}
		changes = append(changes, domain.FileChange{
			Filename: filePatchPath(fp),
			Patch:    patchText,
		})
	}
	return changes, nil
}

// CommitMessages returns the messages of commits reachable from target but
// not from base, newest first.
func (e *Engine) CommitMessages(ctx context.Context, baseRef, targetRef string) ([]string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref: %w", err)
	}
	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref: %w", err)
	}

	iter, err := repo.Log(&goGit.LogOptions{From: targetCommit.Hash})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}

	var messages []string
	err = iter.ForEach(func(commit *object.Commit) error {
		if commit.Hash == baseCommit.Hash {
			return storer.ErrStop
		}
		messages = append(messages, strings.TrimRight(commit.Message, "\n"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	return messages, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// filePatchPath returns the new path for adds/modifies/renames and the old
// path for deletions.
func filePatchPath(fp formatdiff.FilePatch) string {
	from, to := fp.Files()
	if to != nil {
		return to.Path()
	}
	if from != nil {
		return from.Path()
	}
	return ""
}

// diffWithWorkingTree shells out to git for uncommitted changes since
// go-git's worktree status is unreliable for partial staging.
func diffWithWorkingTree(ctx context.Context, repoDir, baseRef string) ([]domain.FileChange, error) {
	statusOut, err := runGitCommand(ctx, repoDir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	trimmed := strings.TrimRight(statusOut, "\r\n")
	if trimmed == "" {
		return []domain.FileChange{}, nil
	}

	lines := strings.Split(trimmed, "\n")
	changes := make([]domain.FileChange, 0, len(lines))
	for _, line := range lines {
		if len(line) < 3 {
			continue
		}
		path := extractPath(line)
		patchOut, err := runGitCommand(ctx, repoDir, "diff", baseRef, "--", path)
		if err != nil {
			return nil, fmt.Errorf("git diff %s: %w", path, err)
		}
		changes = append(changes, domain.FileChange{
			Filename: path,
			Patch:    patchOut,
		})
	}
	return changes, nil
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}

// extractPath reads the path from a porcelain status line. Renames show as
// "R  old -> new"; the new path is what we diff.
func extractPath(line string) string {
	pathPart := strings.TrimSpace(line[3:])
	if idx := strings.Index(pathPart, " -> "); idx >= 0 {
		return strings.TrimSpace(pathPart[idx+4:])
	}
	return pathPart
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}
