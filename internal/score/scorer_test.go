package score

import (
	"testing"

	"github.com/ppiankov/estatuto/internal/model"
)

func approvedSummary() model.ValidationSummary {
	return model.ValidationSummary{Total: 20, OK: 20, PercentOK: 1, Approved: true, Threshold: 0.9}
}

func TestScorer_Calculate_HighQuality(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Calculate(Input{
		Elements:     20,
		Anchors:      10,
		Completeness: model.Completeness{ArticlesFound: 10, HighestNumber: 10, Ratio: 1},
		Summary:      approvedSummary(),
		HasEmenta:    true,
		Correction:   model.CorrectionSkipped,
	})

	if result.Index != 100 {
		t.Errorf("Expected index 100, got %d", result.Index)
	}
	if result.Confidence != "high" {
		t.Errorf("Expected high confidence, got %s", result.Confidence)
	}
	if !result.Approved {
		t.Error("Expected approved")
	}
	// validation, completeness, segmentation, ementa; no correction signal when skipped
	if len(result.Signals) != 4 {
		t.Errorf("Expected 4 signals, got %d", len(result.Signals))
	}
}

func TestScorer_Calculate_LowConfidenceSegmentation(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Calculate(Input{
		Elements:      1,
		LowConfidence: true,
		Summary:       model.ValidationSummary{Total: 1, OK: 1, PercentOK: 1, Approved: true, Threshold: 0.9},
		HasEmenta:     true,
	})

	// 50 validation + 0 completeness + 0 segmentation + 10 ementa
	if result.Index != 60 {
		t.Errorf("Expected index 60, got %d", result.Index)
	}
	if result.Confidence != "low" {
		t.Errorf("Expected low confidence for a preamble-only document, got %s", result.Confidence)
	}
}

func TestScorer_Calculate_Empty(t *testing.T) {
	result := NewScorer().Calculate(Input{})

	if result.Index != 0 {
		t.Errorf("Expected index 0, got %d", result.Index)
	}
	if result.Approved {
		t.Error("Empty document must not be approved")
	}
	for _, s := range result.Signals {
		if s.Type == model.SignalValidation && s.Severity != model.SeverityCritical {
			t.Errorf("Expected critical validation signal, got %s", s.Severity)
		}
	}
}

func TestScorer_Calculate_ConfidenceBands(t *testing.T) {
	tests := []struct {
		name      string
		percentOK float64
		ratio     float64
		ementa    bool
		want      string
	}{
		{"high", 0.96, 1, true, "high"},       // 48 + 30 + 10 + 10 = 98
		{"medium", 0.8, 0.8, false, "medium"}, // 40 + 24 + 10 = 74
		{"low", 0.5, 0.5, false, "low"},       // 25 + 15 + 10 = 50
		{"boundary80", 0.8, 1, false, "high"}, // 40 + 30 + 10 = 80
		{"boundary60", 0.4, 1, false, "medium"},
	}

	scorer := NewScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Calculate(Input{
				Elements:     10,
				Anchors:      5,
				Completeness: model.Completeness{ArticlesFound: 5, HighestNumber: 5, Ratio: tt.ratio},
				Summary:      model.ValidationSummary{Total: 10, PercentOK: tt.percentOK, Threshold: 0.9},
				HasEmenta:    tt.ementa,
			})
			if result.Confidence != tt.want {
				t.Errorf("index %d: confidence = %s, want %s", result.Index, result.Confidence, tt.want)
			}
		})
	}
}

func TestScorer_CorrectionSignal(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Calculate(Input{
		Elements:   5,
		Anchors:    2,
		Summary:    approvedSummary(),
		Correction: model.CorrectionNotCorrected,
		Conditions: []model.Condition{{Kind: model.ConditionOracleUnavailable, Message: "no credentials"}},
	})

	var found bool
	for _, s := range result.Signals {
		if s.Type == model.SignalCorrection {
			found = true
			if s.Severity != model.SeverityWarning {
				t.Errorf("Expected warning severity, got %s", s.Severity)
			}
		}
	}
	if !found {
		t.Error("Expected a correction signal")
	}
}
