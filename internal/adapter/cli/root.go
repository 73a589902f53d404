// Package cli wires the cobra command tree for the ac binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrHumanVerdict is returned from the pr command when --fail-on-human is
// set and the change looks human-written, so the process exits non-zero.
var ErrHumanVerdict = errors.New("change classified as human-written")

// PullClassifier defines the dependency required to run the pr command.
type PullClassifier interface {
	ClassifyPull(ctx context.Context, req classify.Request) (classify.Result, error)
}

// BranchClassifier defines the dependency required to run the branch command.
type BranchClassifier interface {
	ClassifyBranch(ctx context.Context, req classify.BranchRequest) (classify.Result, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	PullClassifier   PullClassifier
	BranchClassifier BranchClassifier
	DetectPull       func() (int, error)
	Args             Arguments
	DefaultOwner     string
	DefaultRepo      string
	PostComment      bool
	FailOnHuman      bool
	Version          string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "ac",
		Short: "AI-authorship classifier for pull requests",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the authorship of a change set",
	}
	classifyCmd.AddCommand(prCommand(deps))
	classifyCmd.AddCommand(branchCommand(deps.BranchClassifier))
	root.AddCommand(classifyCmd)

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func prCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var number int
	var postComment bool
	var failOnHuman bool

	cmd := &cobra.Command{
		Use:   "pr [number]",
		Short: "Classify a pull request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.PullClassifier == nil {
				return fmt.Errorf("pull request classification is not configured; set a GitHub token")
			}

			if len(args) > 0 {
				parsed, err := parsePullNumber(args[0])
				if err != nil {
					return err
				}
				number = parsed
			}
			if number <= 0 && deps.DetectPull != nil {
				detected, err := deps.DetectPull()
				if err != nil {
					return fmt.Errorf("detect pull request: %w", err)
				}
				number = detected
			}
			if number <= 0 {
				return fmt.Errorf("pull request number not specified; pass as an argument or use --number")
			}
			if owner == "" || repo == "" {
				return fmt.Errorf("repository not specified; use --owner and --repo or set them in config")
			}

			resolvedComment := postComment
			if !cmd.Flags().Changed("comment") {
				resolvedComment = deps.PostComment
			}
			resolvedFail := failOnHuman
			if !cmd.Flags().Changed("fail-on-human") {
				resolvedFail = deps.FailOnHuman
			}

			if classify.IsOutputTerminal() {
				fmt.Fprintf(cmd.ErrOrStderr(), "classifying %s/%s#%d...\n", owner, repo, number)
			}

			result, err := deps.PullClassifier.ClassifyPull(cmd.Context(), classify.Request{
				Owner:       owner,
				Repo:        repo,
				Number:      number,
				PostComment: resolvedComment,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			if resolvedFail && !result.Skipped && result.Verdict.IsHumanLike {
				return ErrHumanVerdict
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", deps.DefaultOwner, "GitHub repository owner")
	cmd.Flags().StringVar(&repo, "repo", deps.DefaultRepo, "GitHub repository name")
	cmd.Flags().IntVar(&number, "number", 0, "Pull request number (auto-detected in Actions when omitted)")
	cmd.Flags().BoolVar(&postComment, "comment", false, "Post the verdict as a PR comment")
	cmd.Flags().BoolVar(&failOnHuman, "fail-on-human", false, "Exit non-zero when the change looks human-written")

	return cmd
}

func branchCommand(classifier BranchClassifier) *cobra.Command {
	var baseRef string
	var targetRef string
	var includeUncommitted bool
	var detectTarget bool

	cmd := &cobra.Command{
		Use:   "branch [target]",
		Short: "Classify a local branch against a base reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if classifier == nil {
				return fmt.Errorf("branch classification is not configured; set git.repositoryDir")
			}

			if len(args) > 0 {
				targetRef = args[0]
			}
			ctx := cmd.Context()
			if targetRef == "" && detectTarget {
				resolved, err := classifier.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect target branch: %w", err)
				}
				targetRef = resolved
			}
			if targetRef == "" {
				return fmt.Errorf("target branch not specified; pass as an argument, use --target, or disable --detect-target")
			}

			if classify.IsOutputTerminal() {
				fmt.Fprintf(cmd.ErrOrStderr(), "classifying %s against %s...\n", targetRef, baseRef)
			}

			result, err := classifier.ClassifyBranch(ctx, classify.BranchRequest{
				BaseRef:            baseRef,
				TargetRef:          targetRef,
				IncludeUncommitted: includeUncommitted,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "main", "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target branch to classify (overrides positional)")
	cmd.Flags().BoolVar(&includeUncommitted, "include-uncommitted", false, "Include uncommitted changes on the target branch")
	cmd.Flags().BoolVar(&detectTarget, "detect-target", true, "Automatically detect the checked out branch when no target is provided")

	return cmd
}

func parsePullNumber(arg string) (int, error) {
	var number int
	if _, err := fmt.Sscanf(arg, "%d", &number); err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", arg)
	}
	return number, nil
}

func printResult(w io.Writer, result classify.Result) {
	if result.Skipped {
		fmt.Fprintf(w, "skipped: %s\n", result.SkipReason)
		return
	}

	author := "AI agent"
	if result.Verdict.IsHumanLike {
		author = "human"
	}
	fmt.Fprintf(w, "verdict: %s (%d%% confidence)\n", author, result.Verdict.Confidence)
	if result.Verdict.Reasoning != "" {
		fmt.Fprintf(w, "reasoning: %s\n", result.Verdict.Reasoning)
	}
	for _, indicator := range result.Verdict.Indicators {
		fmt.Fprintf(w, "indicator: %s\n", indicator)
	}
}
