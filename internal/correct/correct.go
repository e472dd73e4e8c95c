// Package correct runs the oracle-assisted corrective pass over a validated
// element list.
package correct

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/oracle"
	"github.com/ppiankov/estatuto/internal/validate"
)

// Config bounds the payload sent to the oracle
type Config struct {
	// MaxFlagged caps how many flagged elements go into one prompt
	MaxFlagged int

	// RawPrefixChars caps the raw source excerpt, in bytes
	RawPrefixChars int

	// MaxTokens for the oracle answer
	MaxTokens int
}

// DefaultConfig returns the pipeline defaults
func DefaultConfig() Config {
	return Config{
		MaxFlagged:     40,
		RawPrefixChars: 30000,
		MaxTokens:      4000,
	}
}

// ConfigFromModel converts the pipeline section of the app config
func ConfigFromModel(p model.PipelineConfig) Config {
	cfg := DefaultConfig()
	if p.MaxFlaggedElements > 0 {
		cfg.MaxFlagged = p.MaxFlaggedElements
	}
	if p.RawPrefixChars > 0 {
		cfg.RawPrefixChars = p.RawPrefixChars
	}
	return cfg
}

// Corrector asks the oracle for replacement and missing elements
type Corrector struct {
	caller oracle.Caller
	cfg    Config
}

// New creates a corrector. A nil caller makes every pass a no-op.
func New(caller oracle.Caller, cfg Config) *Corrector {
	def := DefaultConfig()
	if cfg.MaxFlagged <= 0 {
		cfg.MaxFlagged = def.MaxFlagged
	}
	if cfg.RawPrefixChars <= 0 {
		cfg.RawPrefixChars = def.RawPrefixChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &Corrector{caller: caller, cfg: cfg}
}

// Outcome is the result of one corrective pass. On any oracle failure
// Elements is a copy of the input and Status is not_corrected.
type Outcome struct {
	Elements     []model.DocumentElement `json:"elements"`
	Status       model.CorrectionStatus  `json:"status"`
	Conditions   []model.Condition       `json:"conditions,omitempty"`
	Replaced     int                     `json:"replaced"`
	Added        int                     `json:"added"`
	Deduplicated int                     `json:"deduplicated"`
}

// Correct runs the pass. It never returns an error: an unavailable oracle or
// an unparseable answer leaves the document as it was and says so.
func (c *Corrector) Correct(ctx context.Context, elements []model.DocumentElement, verdicts []model.ValidationVerdict, raw string) Outcome {
	original := slices.Clone(elements)
	notCorrected := func(kind model.ConditionKind, msg string) Outcome {
		return Outcome{
			Elements:   original,
			Status:     model.CorrectionNotCorrected,
			Conditions: []model.Condition{{Kind: kind, Message: msg}},
		}
	}

	if c.caller == nil {
		return notCorrected(model.ConditionOracleUnavailable, "nenhum oráculo configurado; documento validado mas não corrigido")
	}

	work, dropped := dropDuplicates(slices.Clone(elements))
	flagged := c.selectFlagged(work, verdicts)
	completeness := validate.Measure(work)

	prompt, err := c.buildPrompt(flagged, completeness.Missing, raw)
	if err != nil {
		return notCorrected(model.ConditionMalformedOracleResponse, err.Error())
	}

	answer, err := c.caller.Call(ctx, oracle.Request{
		Task:      "correct",
		System:    correctionSystem,
		Prompt:    prompt,
		MaxTokens: c.cfg.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		log.Warn().Err(err).Int("flagged", len(flagged)).Msg("Corrective pass skipped")
		kind := model.ConditionOracleUnavailable
		if errors.Is(err, oracle.ErrMalformedResponse) {
			kind = model.ConditionMalformedOracleResponse
		}
		return notCorrected(kind, "oráculo indisponível; documento validado mas não corrigido: "+err.Error())
	}

	patch, err := ParsePatch(answer)
	if err != nil {
		log.Warn().Err(err).Msg("Corrective pass answer unparseable")
		return notCorrected(model.ConditionMalformedOracleResponse, "resposta do oráculo malformada; documento validado mas não corrigido")
	}

	merged, stats := merge(work, patch)
	if stats.replaced == 0 && stats.added == 0 && dropped == 0 {
		return Outcome{Elements: original, Status: model.CorrectionNotCorrected}
	}

	log.Debug().
		Int("replaced", stats.replaced).
		Int("added", stats.added).
		Int("deduplicated", dropped).
		Int("ignored", stats.ignored).
		Msg("Corrective pass applied")

	return Outcome{
		Elements:     merged,
		Status:       model.CorrectionApplied,
		Replaced:     stats.replaced,
		Added:        stats.added,
		Deduplicated: dropped,
	}
}

// selectFlagged picks the flagged elements still present, errors first,
// bounded by MaxFlagged
func (c *Corrector) selectFlagged(elements []model.DocumentElement, verdicts []model.ValidationVerdict) []flaggedElement {
	byOrder := make(map[int]model.DocumentElement, len(elements))
	for _, e := range elements {
		byOrder[e.Order] = e
	}

	var out []flaggedElement
	for _, status := range []model.VerdictStatus{model.StatusError, model.StatusWarning} {
		for _, v := range verdicts {
			if v.Status != status {
				continue
			}
			e, ok := byOrder[v.Order]
			if !ok {
				continue
			}
			if len(out) == c.cfg.MaxFlagged {
				return out
			}
			out = append(out, flaggedElement{
				Order:   e.Order,
				Kind:    string(e.Kind),
				Number:  e.Number,
				Text:    e.Text,
				Problem: v.Problem,
			})
		}
	}
	return out
}

type flaggedElement struct {
	Order   int    `json:"order"`
	Kind    string `json:"kind"`
	Number  string `json:"number,omitempty"`
	Text    string `json:"text"`
	Problem string `json:"problem"`
}

const correctionSystem = `Você corrige a estruturação de atos normativos brasileiros.
Recebe elementos sinalizados por um validador e um trecho do texto original.
Responda somente com JSON no formato:
{"replacements":[{"order":N,"text":"texto completo do elemento"}],
 "additions":[{"order":N,"kind":"Article|Paragraph|Item|Clause|ChapterTitle|SectionTitle|DateLine|SignatureLine","number":"Art. 4º","text":"texto completo"}]}
Use "replacements" para elementos truncados ou malformados, mantendo o mesmo order.
Use "additions" para dispositivos ausentes; order é a posição em que devem entrar.
Copie o texto do original sem resumir e sem notas de alteração entre parênteses.
Se nada precisar mudar, responda {"replacements":[],"additions":[]}.`

func (c *Corrector) buildPrompt(flagged []flaggedElement, missing []int, raw string) (string, error) {
	payload, err := json.MarshalIndent(flagged, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal flagged elements: %w", err)
	}

	var b strings.Builder
	b.WriteString("Elementos sinalizados:\n")
	b.Write(payload)
	b.WriteString("\n\n")
	if len(missing) > 0 {
		nums := make([]string, len(missing))
		for i, n := range missing {
			nums[i] = fmt.Sprint(n)
		}
		b.WriteString("Artigos ausentes na numeração: ")
		b.WriteString(strings.Join(nums, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("Texto original (trecho inicial):\n")
	b.WriteString(truncate(raw, c.cfg.RawPrefixChars))
	return b.String(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
