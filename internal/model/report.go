package model

import "time"

// Status discriminates the outcome of a pipeline stage or run
type Status string

const (
	StageOK       Status = "ok"
	StageDeferred Status = "deferred" // degraded but retryable later (no ementa, fetch failed, ...)
	StageError    Status = "error"    // hard precondition failure (no input at all)
)

// ConditionKind is the recoverable-failure taxonomy attached to results
type ConditionKind string

const (
	ConditionInputDegraded           ConditionKind = "input_degraded"
	ConditionExtractionIncomplete    ConditionKind = "extraction_incomplete"
	ConditionValidationFailed        ConditionKind = "validation_failed"
	ConditionOracleUnavailable       ConditionKind = "oracle_unavailable"
	ConditionMalformedOracleResponse ConditionKind = "malformed_oracle_response"
	ConditionEmentaPending           ConditionKind = "ementa_pending"
	ConditionFetchDeferred           ConditionKind = "fetch_deferred"
)

// Condition annotates a result with a recoverable problem
type Condition struct {
	Kind    ConditionKind `json:"kind"`
	Message string        `json:"message"`
}

// HasCondition reports whether the given kind is present
func HasCondition(conditions []Condition, kind ConditionKind) bool {
	for _, c := range conditions {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// CorrectionStatus records what the corrective pass did
type CorrectionStatus string

const (
	CorrectionSkipped      CorrectionStatus = "skipped"       // not needed
	CorrectionApplied      CorrectionStatus = "applied"       // oracle output merged
	CorrectionNotCorrected CorrectionStatus = "not_corrected" // validated but not corrected
)

// Score is the transparent confidence breakdown of a processed act
type Score struct {
	Index      int      `json:"index"`      // 0-100
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Approved   bool     `json:"approved"`
	Signals    []Signal `json:"signals"`
}

// Signal is a diagnostic with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalSegmentation SignalType = "segmentation"
	SignalCompleteness SignalType = "completeness"
	SignalValidation   SignalType = "validation"
	SignalEmenta       SignalType = "ementa"
	SignalCorrection   SignalType = "correction"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// StructuredAct is the durable output of one extraction/validation/correction cycle
type StructuredAct struct {
	RunID        string              `json:"run_id"`
	Key          ActKey              `json:"key"`
	Label        string              `json:"label"`
	SourceURL    string              `json:"source_url,omitempty"`
	Fetch        *FetchMeta          `json:"fetch,omitempty"`
	ProcessedAt  time.Time           `json:"processed_at"`
	Status       Status              `json:"status"`
	Ementa       string              `json:"ementa,omitempty"`
	Elements     []DocumentElement   `json:"elements"`
	Verdicts     []ValidationVerdict `json:"verdicts,omitempty"`
	Summary      ValidationSummary   `json:"summary"`
	Completeness Completeness        `json:"completeness"`
	Correction   CorrectionStatus    `json:"correction"`
	Score        Score               `json:"score"`
	Conditions   []Condition         `json:"conditions,omitempty"`
}
