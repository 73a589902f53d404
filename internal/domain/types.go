package domain

// FileChange represents one changed file in a pull request.
type FileChange struct {
	Filename string
	Patch    string
}

// PRContext is an immutable snapshot of pull request metadata, captured once
// at the start of an evaluation.
type PRContext struct {
	Title          string
	Description    string
	CommitMessages []string
	Author         string
}

// Judgment is the atomic classification unit, produced per file by the LLM
// judge and as the aggregate verdict.
//
// Confidence means "confidence in the stated IsHumanLike value", not an
// independent probability: {IsHumanLike: true, Confidence: 90} and
// {IsHumanLike: false, Confidence: 10} are different statements.
type Judgment struct {
	IsHumanLike bool     `json:"isHumanLike"`
	Confidence  int      `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Indicators  []string `json:"indicators"`
}

// FileJudgment pairs a judgment with the file it describes.
type FileJudgment struct {
	Filename string   `json:"filename"`
	Judgment Judgment `json:"judgment"`
}

// VerdictArtifact encapsulates the Markdown report generation inputs.
type VerdictArtifact struct {
	OutputDir  string
	Repository string
	Reference  string
	Verdict    Judgment
	Files      []FileJudgment
}

// ClampConfidence bounds a confidence value to the valid [0, 100] range.
func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
