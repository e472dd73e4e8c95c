package model

// VerdictStatus is the outcome of validating one element
type VerdictStatus string

const (
	StatusOK      VerdictStatus = "ok"
	StatusWarning VerdictStatus = "warning"
	StatusError   VerdictStatus = "error"
)

// Rule identifies which validation rule produced a verdict
type Rule string

const (
	RuleNone             Rule = ""
	RuleShortStructural  Rule = "short_structural"
	RuleMissingNumber    Rule = "missing_number"
	RuleDuplicateArticle Rule = "duplicate_article"
	RuleNumberMismatch   Rule = "number_mismatch"
	RuleDuplicateMarker  Rule = "duplicate_marker"
	RuleForwardGap       Rule = "forward_gap"
	RuleBackwardJump     Rule = "backward_jump"
	RuleShortBody        Rule = "short_body"
	RuleResidualMarkup   Rule = "residual_markup"
	RuleCrossReference   Rule = "cross_reference"
	RuleTruncated        Rule = "truncated"
)

// ValidationVerdict is the per-element validation result
type ValidationVerdict struct {
	Index      int           `json:"index"` // position in the validated slice (0-based)
	Order      int           `json:"order"`
	Kind       ElementKind   `json:"kind"`
	Number     string        `json:"number,omitempty"`
	Status     VerdictStatus `json:"status"`
	Rule       Rule          `json:"rule,omitempty"`
	Problem    string        `json:"problem,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// Flagged reports whether the verdict is not ok
func (v ValidationVerdict) Flagged() bool {
	return v.Status != StatusOK
}

// ValidationSummary aggregates verdict counts
type ValidationSummary struct {
	Total     int          `json:"total"`
	OK        int          `json:"ok"`
	Warnings  int          `json:"warnings"`
	Errors    int          `json:"errors"`
	PercentOK float64      `json:"percent_ok"` // ok / total, 0..1
	Approved  bool         `json:"approved"`
	Threshold float64      `json:"threshold"`
	ByRule    map[Rule]int `json:"by_rule,omitempty"`
}

// Completeness measures how much of the article numbering was recovered
type Completeness struct {
	ArticlesFound int     `json:"articles_found"` // distinct base article numbers
	HighestNumber int     `json:"highest_number"` // highest base article number observed
	Ratio         float64 `json:"ratio"`          // articles_found / highest_number
	Gaps          int     `json:"gaps"`           // forward jumps > 1 between consecutive articles
	Missing       []int   `json:"missing,omitempty"`
}
