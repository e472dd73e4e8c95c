package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/estatuto/internal/model"
)

// Input gathers what one pipeline run observed about an act
type Input struct {
	Elements      int
	Anchors       int  // article anchors found by the segmenter
	LowConfidence bool // no anchors, whole text wrapped as preamble
	Completeness  model.Completeness
	Summary       model.ValidationSummary
	HasEmenta     bool
	Correction    model.CorrectionStatus
	Conditions    []model.Condition
}

// Scorer calculates the confidence index and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate calculates the confidence score and generates diagnostic signals
func (s *Scorer) Calculate(in Input) model.Score {
	var signals []model.Signal

	// 1. Validation (0-50 points)
	validationScore, validationSignal := s.calculateValidation(in.Summary)
	signals = append(signals, validationSignal)

	// 2. Completeness (0-30 points)
	completenessScore, completenessSignal := s.calculateCompleteness(in.Completeness)
	signals = append(signals, completenessSignal)

	// 3. Segmentation (0-10 points)
	segmentationScore, segmentationSignal := s.calculateSegmentation(in)
	signals = append(signals, segmentationSignal)

	// 4. Ementa (0-10 points)
	ementaScore, ementaSignal := s.calculateEmenta(in.HasEmenta)
	signals = append(signals, ementaSignal)

	// 5. Correction outcome (informational)
	if correctionSignal := s.correctionSignal(in); correctionSignal.Type != "" {
		signals = append(signals, correctionSignal)
	}

	totalScore := validationScore + completenessScore + segmentationScore + ementaScore
	if totalScore > 100 {
		totalScore = 100
	}

	return model.Score{
		Index:      totalScore,
		Confidence: s.determineConfidence(totalScore, in.LowConfidence),
		Approved:   in.Summary.Approved,
		Signals:    signals,
	}
}

// calculateValidation scores the share of ok verdicts (0-50 points)
func (s *Scorer) calculateValidation(summary model.ValidationSummary) (int, model.Signal) {
	if summary.Total == 0 {
		return 0, model.Signal{
			Type:        model.SignalValidation,
			Severity:    model.SeverityCritical,
			Description: "No elements validated",
			Data:        map[string]interface{}{"total": 0},
		}
	}

	score := int(math.Round(summary.PercentOK * 50))

	severity := model.SeverityInfo
	if summary.Errors > 0 || !summary.Approved {
		severity = model.SeverityCritical
	} else if summary.Warnings > 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:     model.SignalValidation,
		Severity: severity,
		Description: fmt.Sprintf("%d/%d elements ok (%.0f%%, threshold %.0f%%)",
			summary.OK, summary.Total, summary.PercentOK*100, summary.Threshold*100),
		Data: map[string]interface{}{
			"total":    summary.Total,
			"ok":       summary.OK,
			"warnings": summary.Warnings,
			"errors":   summary.Errors,
			"approved": summary.Approved,
			"score":    score,
			"formula":  "round(ok / total * 50)",
		},
	}
}

// calculateCompleteness scores recovered article numbering (0-30 points)
func (s *Scorer) calculateCompleteness(c model.Completeness) (int, model.Signal) {
	if c.HighestNumber == 0 {
		return 0, model.Signal{
			Type:        model.SignalCompleteness,
			Severity:    model.SeverityCritical,
			Description: "No numbered articles found",
			Data:        map[string]interface{}{"articles": 0},
		}
	}

	score := int(math.Min(c.Ratio, 1) * 30)

	severity := model.SeverityInfo
	if c.Ratio < 0.8 {
		severity = model.SeverityCritical
	} else if c.Ratio < 1 {
		severity = model.SeverityWarning
	}

	description := fmt.Sprintf("%d of %d articles recovered", c.ArticlesFound, c.HighestNumber)
	if c.Gaps > 0 {
		description = fmt.Sprintf("%s (%d gaps)", description, c.Gaps)
	}

	return score, model.Signal{
		Type:        model.SignalCompleteness,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"articles_found": c.ArticlesFound,
			"highest_number": c.HighestNumber,
			"ratio":          c.Ratio,
			"gaps":           c.Gaps,
			"missing":        len(c.Missing),
			"score":          score,
			"formula":        "min(articles_found / highest_number, 1) * 30",
		},
	}
}

// calculateSegmentation rewards a segmentation anchored on articles (0-10 points)
func (s *Scorer) calculateSegmentation(in Input) (int, model.Signal) {
	if in.LowConfidence || in.Anchors == 0 {
		return 0, model.Signal{
			Type:        model.SignalSegmentation,
			Severity:    model.SeverityCritical,
			Description: "No article anchors found; text kept as a single preamble",
			Data: map[string]interface{}{
				"elements": in.Elements,
				"anchors":  in.Anchors,
			},
		}
	}
	return 10, model.Signal{
		Type:        model.SignalSegmentation,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d elements from %d article anchors", in.Elements, in.Anchors),
		Data: map[string]interface{}{
			"elements": in.Elements,
			"anchors":  in.Anchors,
			"score":    10,
		},
	}
}

// calculateEmenta rewards a resolved ementa (0-10 points)
func (s *Scorer) calculateEmenta(found bool) (int, model.Signal) {
	if !found {
		return 0, model.Signal{
			Type:        model.SignalEmenta,
			Severity:    model.SeverityWarning,
			Description: "Ementa pending",
		}
	}
	return 10, model.Signal{
		Type:        model.SignalEmenta,
		Severity:    model.SeverityInfo,
		Description: "Ementa resolved",
		Data:        map[string]interface{}{"score": 10},
	}
}

func (s *Scorer) correctionSignal(in Input) model.Signal {
	switch in.Correction {
	case model.CorrectionApplied:
		return model.Signal{
			Type:        model.SignalCorrection,
			Severity:    model.SeverityInfo,
			Description: "Corrective pass applied",
		}
	case model.CorrectionNotCorrected:
		severity := model.SeverityInfo
		description := "Corrective pass proposed no changes"
		if model.HasCondition(in.Conditions, model.ConditionOracleUnavailable) ||
			model.HasCondition(in.Conditions, model.ConditionMalformedOracleResponse) {
			severity = model.SeverityWarning
			description = "Corrective pass skipped: oracle unavailable or malformed response"
		}
		return model.Signal{
			Type:        model.SignalCorrection,
			Severity:    severity,
			Description: description,
		}
	}
	return model.Signal{}
}

// determineConfidence determines the confidence level based on the score
func (s *Scorer) determineConfidence(score int, lowConfidence bool) string {
	if lowConfidence {
		return "low"
	}

	if score >= 80 {
		return "high"
	} else if score >= 60 {
		return "medium"
	} else {
		return "low"
	}
}
