package classify

import (
	"regexp"
	"strings"

	"github.com/dkelsey/agent-check/internal/domain"
)

// SignalSet is the output of the PR-metadata scan.
type SignalSet struct {
	// Indicators lists every tag that fired, in rule order.
	Indicators []string

	// Adjustment is the summed signed adjustment of all non-absolute rules.
	// Positive leans agent-authored, negative human-authored. Clamping to
	// the confidence range happens in the aggregator, never here.
	Adjustment int

	// Absolute is set when an explicit agent signature was found. The
	// aggregator must honour it before considering anything else.
	Absolute bool

	// StructuralScore sums the adjustments of structural description rules
	// only. It backs the non-code-file special case.
	StructuralScore int
}

var (
	conventionalCommitPattern = regexp.MustCompile(`^(feat|fix|chore|docs|style|refactor|test|build|perf|ci)(\(.+\))?: .+`)
	markdownHeaderPattern     = regexp.MustCompile(`(?m)^#{1,6} \S`)
	checkboxPattern           = regexp.MustCompile(`(?m)^\s*[-*] \[[ xX]\] `)
	testPlanPattern           = regexp.MustCompile(`(?im)^#{1,6} .*test plan`)
	terseTitlePattern         = regexp.MustCompile(`(?i)^(fix|fixes|fixed|update|updated|bump|typo)\b`)

	claudeSignaturePattern  = regexp.MustCompile(`(?i)(🤖 generated with|generated with \[?claude|co-authored-by: claude)`)
	copilotSignaturePattern = regexp.MustCompile(`(?i)(generated (by|with) (github )?copilot|co-authored-by: (github )?copilot)`)
	cursorSignaturePattern  = regexp.MustCompile(`(?i)(generated (by|with) cursor|co-authored-by: cursor)`)
	codexSignaturePattern   = regexp.MustCompile(`(?i)(generated (by|with) (openai )?codex|co-authored-by: codex)`)
)

// signalRule is one data-described heuristic: a predicate over PR metadata
// plus the tag it emits. Rules are evaluated uniformly and independently.
type signalRule struct {
	tag        string
	absolute   bool
	structural bool
	matches    func(pr domain.PRContext) bool
}

// SignalExtractor scans PR metadata for named indicators. Pure and
// deterministic; no I/O.
type SignalExtractor struct {
	tuning domain.Tuning
	rules  []signalRule
}

// NewSignalExtractor builds the rule set against the supplied tuning table.
func NewSignalExtractor(tuning domain.Tuning) *SignalExtractor {
	return &SignalExtractor{
		tuning: tuning,
		rules: []signalRule{
			{tag: domain.IndicatorClaudeSignature, absolute: true, matches: signatureMatcher(claudeSignaturePattern)},
			{tag: domain.IndicatorCopilotSignature, absolute: true, matches: signatureMatcher(copilotSignaturePattern)},
			{tag: domain.IndicatorCursorSignature, absolute: true, matches: signatureMatcher(cursorSignaturePattern)},
			{tag: domain.IndicatorCodexSignature, absolute: true, matches: signatureMatcher(codexSignaturePattern)},
			{tag: domain.IndicatorNoDescription, matches: hasNoDescription},
			{tag: domain.IndicatorConventionalCommits, matches: hasPerfectConventionalCommits},
			{tag: domain.IndicatorStructuredDescription, structural: true, matches: hasStructuredDescription},
			{tag: domain.IndicatorCheckboxList, structural: true, matches: hasCheckboxList},
			{tag: domain.IndicatorTestPlanSection, structural: true, matches: hasTestPlanSection},
			{tag: domain.IndicatorTerseFixTitle, matches: hasTerseFixTitle},
		},
	}
}

// Extract evaluates every rule against the PR metadata. Multiple rules may
// fire; their adjustments are summed.
func (e *SignalExtractor) Extract(pr domain.PRContext) SignalSet {
	var set SignalSet
	for _, rule := range e.rules {
		if !rule.matches(pr) {
			continue
		}
		set.Indicators = append(set.Indicators, rule.tag)
		if rule.absolute {
			set.Absolute = true
			continue
		}
		adjustment := e.tuning.Adjustment(rule.tag)
		set.Adjustment += adjustment
		if rule.structural {
			set.StructuralScore += adjustment
		}
	}
	return set
}

// signatureMatcher checks commit messages and the PR description for an
// explicit agent attribution string.
func signatureMatcher(pattern *regexp.Regexp) func(domain.PRContext) bool {
	return func(pr domain.PRContext) bool {
		if pattern.MatchString(pr.Description) {
			return true
		}
		for _, msg := range pr.CommitMessages {
			if pattern.MatchString(msg) {
				return true
			}
		}
		return false
	}
}

func hasNoDescription(pr domain.PRContext) bool {
	return strings.TrimSpace(pr.Description) == ""
}

// hasPerfectConventionalCommits fires when a PR with more than two commits
// has every first line matching the conventional-commit grammar. Humans
// rarely keep a long commit series that disciplined.
func hasPerfectConventionalCommits(pr domain.PRContext) bool {
	if len(pr.CommitMessages) <= 2 {
		return false
	}
	for _, msg := range pr.CommitMessages {
		firstLine, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
		if !conventionalCommitPattern.MatchString(firstLine) {
			return false
		}
	}
	return true
}

func hasStructuredDescription(pr domain.PRContext) bool {
	return len(markdownHeaderPattern.FindAllString(pr.Description, 3)) >= 2
}

func hasCheckboxList(pr domain.PRContext) bool {
	return checkboxPattern.MatchString(pr.Description)
}

func hasTestPlanSection(pr domain.PRContext) bool {
	return testPlanPattern.MatchString(pr.Description)
}

func hasTerseFixTitle(pr domain.PRContext) bool {
	title := strings.TrimSpace(pr.Title)
	return hasNoDescription(pr) && title != "" && len(title) <= 50 && terseTitlePattern.MatchString(title)
}
