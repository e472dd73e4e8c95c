package validate

import (
	"iter"
	"slices"
	"sync/atomic"

	"github.com/ppiankov/estatuto/internal/model"
)

// Config holds the validation heuristics
type Config struct {
	ApprovalThreshold     float64 // minimum ok ratio for approval
	MaxForwardGap         int     // article jumps above this are flagged
	CompletenessThreshold float64 // corrective pass trigger: found/highest below this...
	MaxGaps               int     // ...with more than this many numeric gaps
	MaxStructuralWarnings int     // or more truncation/duplication warnings than this
}

// DefaultConfig returns the default validation heuristics
func DefaultConfig() Config {
	return Config{
		ApprovalThreshold:     0.90,
		MaxForwardGap:         5,
		CompletenessThreshold: 0.95,
		MaxGaps:               2,
		MaxStructuralWarnings: 3,
	}
}

// ConfigFromModel maps the pipeline section of the configuration
func ConfigFromModel(p model.PipelineConfig) Config {
	cfg := DefaultConfig()
	if p.ApprovalThreshold > 0 {
		cfg.ApprovalThreshold = p.ApprovalThreshold
	}
	if p.MaxForwardGap > 0 {
		cfg.MaxForwardGap = p.MaxForwardGap
	}
	if p.CompletenessThreshold > 0 {
		cfg.CompletenessThreshold = p.CompletenessThreshold
	}
	if p.MaxGaps > 0 {
		cfg.MaxGaps = p.MaxGaps
	}
	if p.MaxStructuralWarnings > 0 {
		cfg.MaxStructuralWarnings = p.MaxStructuralWarnings
	}
	return cfg
}

// Validator checks structural invariants of a segmented act, element by element
type Validator struct {
	cfg Config
}

// New creates a validator
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Config returns the validator's heuristics
func (v *Validator) Config() Config {
	return v.cfg
}

// Verdicts returns a lazy stream of one verdict per element, computed in a
// single forward pass. The stream is single-use: ranging over it a second
// time yields nothing. Stopping early is allowed.
func (v *Validator) Verdicts(elements []model.DocumentElement) iter.Seq[model.ValidationVerdict] {
	var consumed atomic.Bool
	return func(yield func(model.ValidationVerdict) bool) {
		if consumed.Swap(true) {
			return
		}
		st := newState()
		for i, e := range elements {
			if !yield(v.check(st, i, e)) {
				return
			}
		}
	}
}

// Validate drains the verdict stream and aggregates it
func (v *Validator) Validate(elements []model.DocumentElement) ([]model.ValidationVerdict, model.ValidationSummary) {
	verdicts := slices.Collect(v.Verdicts(elements))
	return verdicts, v.Summarize(verdicts)
}

// Summarize aggregates verdicts against the approval threshold
func (v *Validator) Summarize(verdicts []model.ValidationVerdict) model.ValidationSummary {
	t := NewTally(v.cfg.ApprovalThreshold)
	for _, vd := range verdicts {
		t.Add(vd)
	}
	return t.Summary()
}

// Tally accumulates a summary incrementally, for stream consumers
type Tally struct {
	summary model.ValidationSummary
}

// NewTally creates an empty tally
func NewTally(threshold float64) *Tally {
	return &Tally{summary: model.ValidationSummary{
		Threshold: threshold,
		ByRule:    make(map[model.Rule]int),
	}}
}

// Add counts one verdict
func (t *Tally) Add(v model.ValidationVerdict) {
	t.summary.Total++
	switch v.Status {
	case model.StatusOK:
		t.summary.OK++
	case model.StatusWarning:
		t.summary.Warnings++
	case model.StatusError:
		t.summary.Errors++
	}
	if v.Rule != model.RuleNone {
		t.summary.ByRule[v.Rule]++
	}
}

// Summary returns the aggregate so far. An empty document is never approved.
func (t *Tally) Summary() model.ValidationSummary {
	s := t.summary
	s.ByRule = make(map[model.Rule]int, len(t.summary.ByRule))
	for k, n := range t.summary.ByRule {
		s.ByRule[k] = n
	}
	if s.Total > 0 {
		s.PercentOK = float64(s.OK) / float64(s.Total)
	}
	s.Approved = s.Total > 0 && s.PercentOK >= s.Threshold
	return s
}
