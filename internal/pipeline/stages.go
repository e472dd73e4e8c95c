package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/correct"
	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/normalize"
	"github.com/ppiankov/estatuto/internal/oracle"
	"github.com/ppiankov/estatuto/internal/segment"
	"github.com/ppiankov/estatuto/internal/validate"
)

// ErrNoInput is the only hard precondition failure: there is no text at all
var ErrNoInput = errors.New("no input text")

// StageResult is what every stage entry point returns: its typed value, a
// status discriminator and the recoverable conditions it ran into
type StageResult[T any] struct {
	Value      T                 `json:"value"`
	Status     model.Status      `json:"status"`
	Conditions []model.Condition `json:"conditions,omitempty"`
}

func stageOK[T any](v T, conditions ...model.Condition) StageResult[T] {
	return StageResult[T]{Value: v, Status: model.StageOK, Conditions: conditions}
}

func stageDeferred[T any](v T, conditions ...model.Condition) StageResult[T] {
	return StageResult[T]{Value: v, Status: model.StageDeferred, Conditions: conditions}
}

func condition(kind model.ConditionKind, format string, args ...any) model.Condition {
	return model.Condition{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation is the value of the validate stage
type Validation struct {
	Verdicts        []model.ValidationVerdict `json:"verdicts"`
	Summary         model.ValidationSummary   `json:"summary"`
	Completeness    model.Completeness        `json:"completeness"`
	NeedsCorrection bool                      `json:"needs_correction"`
}

// NormalizeStage cleans the source with the adapter for its URL and
// normalizes it. Blank input is ErrNoInput.
func (p *Pipeline) NormalizeStage(in Input) (StageResult[string], error) {
	return p.normalizeWith(p.normalizer, in)
}

// SpeechStage is NormalizeStage with the configured abbreviation table
// expanded ("Art." to "Artigo"), for text that will be read aloud. Its output
// is never segmented.
func (p *Pipeline) SpeechStage(in Input) (StageResult[string], error) {
	return p.normalizeWith(p.speech, in)
}

func (p *Pipeline) normalizeWith(n *normalize.Normalizer, in Input) (StageResult[string], error) {
	if strings.TrimSpace(in.Raw) == "" {
		return StageResult[string]{
			Status:     model.StageError,
			Conditions: []model.Condition{condition(model.ConditionInputDegraded, "nenhum texto de entrada")},
		}, ErrNoInput
	}

	var conditions []model.Condition
	cleaned, adapter, err := p.sources.Clean(in.Raw, in.URL, in.ContentType)
	if err != nil {
		log.Warn().Err(err).Str("url", in.URL).Msg("Source cleaning failed, normalizing raw input")
		conditions = append(conditions, condition(model.ConditionInputDegraded, "limpeza do HTML falhou: %v", err))
		cleaned = in.Raw
	}
	log.Debug().Str("adapter", adapter).Str("url", in.URL).Msg("Source cleaned")

	text := n.Normalize(cleaned)
	if text == "" {
		conditions = append(conditions, condition(model.ConditionInputDegraded, "nenhum texto após a normalização"))
		return stageDeferred(text, conditions...), nil
	}
	return stageOK(text, conditions...), nil
}

// SegmentStage splits normalized text into elements
func (p *Pipeline) SegmentStage(text string) StageResult[segment.Segmentation] {
	seg := p.segmenter.Segment(text)
	switch {
	case len(seg.Elements) == 0:
		return stageDeferred(seg, condition(model.ConditionInputDegraded, "texto vazio; nenhum elemento segmentado"))
	case seg.LowConfidence:
		return stageOK(seg, condition(model.ConditionInputDegraded, "nenhuma âncora de artigo encontrada; texto mantido como preâmbulo"))
	}
	return stageOK(seg)
}

// EmentaStage returns the ementa already segmented from the header, or runs
// the extraction tiers over the page. A miss is deferred, never an error.
func (p *Pipeline) EmentaStage(ctx context.Context, html, label string, elements []model.DocumentElement) StageResult[string] {
	if text, found := model.FindEmenta(elements); found {
		return stageOK(text)
	}

	res := p.ementa.Resolve(ctx, html, label)
	if res.Found() {
		log.Debug().Str("act", label).Str("strategy", res.Strategy).Msg("Ementa resolved")
		return stageOK(res.Text)
	}

	conditions := []model.Condition{condition(model.ConditionEmentaPending, "ementa não encontrada")}
	for _, err := range res.Errs {
		if errors.Is(err, oracle.ErrOracleUnavailable) {
			conditions = append(conditions, condition(model.ConditionOracleUnavailable, "camada de IA da ementa indisponível: %v", err))
			break
		}
	}
	return stageDeferred("", conditions...)
}

// ValidateStage runs the line-by-line validator and the completeness metric
func (p *Pipeline) ValidateStage(elements []model.DocumentElement) StageResult[Validation] {
	verdicts, summary := p.validator.Validate(elements)
	completeness := validate.Measure(elements)
	v := Validation{
		Verdicts:        verdicts,
		Summary:         summary,
		Completeness:    completeness,
		NeedsCorrection: p.validator.NeedsCorrection(completeness, summary),
	}

	if len(elements) == 0 {
		return stageDeferred(v, condition(model.ConditionInputDegraded, "nenhum elemento para validar"))
	}

	var conditions []model.Condition
	if v.NeedsCorrection {
		conditions = append(conditions, condition(model.ConditionExtractionIncomplete,
			"%d de %d artigos encontrados, %d lacunas", completeness.ArticlesFound, completeness.HighestNumber, completeness.Gaps))
	}
	if !summary.Approved {
		conditions = append(conditions, condition(model.ConditionValidationFailed,
			"%.0f%% dos elementos ok, abaixo do limite de %.0f%%", summary.PercentOK*100, summary.Threshold*100))
	}
	return stageOK(v, conditions...)
}

// CorrectStage runs the corrective pass. Anything short of an applied patch
// is deferred with the original elements.
func (p *Pipeline) CorrectStage(ctx context.Context, elements []model.DocumentElement, verdicts []model.ValidationVerdict, raw string) StageResult[correct.Outcome] {
	outcome := p.corrector.Correct(ctx, elements, verdicts, raw)
	if outcome.Status == model.CorrectionApplied {
		return stageOK(outcome, outcome.Conditions...)
	}
	return stageDeferred(outcome, outcome.Conditions...)
}

// ActsStage extracts act records from a listing page
func (p *Pipeline) ActsStage(html, baseURL string, actType model.ActType) (StageResult[[]model.ActRecord], error) {
	if strings.TrimSpace(html) == "" {
		return StageResult[[]model.ActRecord]{
			Status:     model.StageError,
			Conditions: []model.Condition{condition(model.ConditionInputDegraded, "listagem vazia")},
		}, ErrNoInput
	}

	records, err := p.acts.ExtractActs(html, baseURL, actType)
	if err != nil {
		return StageResult[[]model.ActRecord]{Status: model.StageError}, err
	}
	if len(records) == 0 {
		return stageDeferred(records, condition(model.ConditionInputDegraded, "nenhum ato encontrado na listagem")), nil
	}
	return stageOK(records), nil
}

// insertEmenta places an Ementa element after the header region
func insertEmenta(elements []model.DocumentElement, text string) []model.DocumentElement {
	at := len(elements)
	for i, e := range elements {
		if e.Kind.Priority() > model.KindEmenta.Priority() {
			at = i
			break
		}
	}
	out := make([]model.DocumentElement, 0, len(elements)+1)
	out = append(out, elements[:at]...)
	out = append(out, model.DocumentElement{Kind: model.KindEmenta, Text: text})
	out = append(out, elements[at:]...)
	model.Renumber(out)
	return out
}

// StreamVerdicts validates elements one at a time, handing each verdict to
// yield as soon as it is computed. Returning false from yield stops the pass;
// the summary then covers the verdicts emitted so far.
func (p *Pipeline) StreamVerdicts(elements []model.DocumentElement, yield func(model.ValidationVerdict) bool) model.ValidationSummary {
	tally := validate.NewTally(p.validator.Config().ApprovalThreshold)
	for v := range p.validator.Verdicts(elements) {
		tally.Add(v)
		if !yield(v) {
			break
		}
	}
	return tally.Summary()
}
