package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/acts"
	"github.com/ppiankov/estatuto/internal/correct"
	"github.com/ppiankov/estatuto/internal/ementa"
	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/normalize"
	"github.com/ppiankov/estatuto/internal/oracle"
	"github.com/ppiankov/estatuto/internal/score"
	"github.com/ppiankov/estatuto/internal/segment"
	"github.com/ppiankov/estatuto/internal/source"
	"github.com/ppiankov/estatuto/internal/store"
	"github.com/ppiankov/estatuto/internal/validate"
)

// ErrNoFetcher is returned by the URL entry points of a pipeline built
// without a fetcher
var ErrNoFetcher = errors.New("no fetcher configured")

// Deps are the collaborators a Pipeline talks to. All are optional: without
// a fetcher only Process works, without an oracle the AI tiers are skipped,
// without a store nothing is persisted.
type Deps struct {
	Fetcher *Fetcher
	Oracle  oracle.Caller
	Store   store.ActStore
	Sources *source.Registry
}

// Pipeline orchestrates one extraction/validation/correction cycle per act
type Pipeline struct {
	fetcher    *Fetcher
	sources    *source.Registry
	normalizer *normalize.Normalizer
	speech     *normalize.Normalizer
	segmenter  *segment.Segmenter
	ementa     *ementa.Chain
	validator  *validate.Validator
	corrector  *correct.Corrector
	acts       *acts.Extractor
	scorer     *score.Scorer
	store      store.ActStore
	renderer   *Renderer
	config     *model.Config
	now        func() time.Time
}

// New creates a pipeline with the given configuration and collaborators
func New(cfg *model.Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	extractor, err := acts.New(cfg.Acts.NumberPatterns)
	if err != nil {
		return nil, fmt.Errorf("acts extractor: %w", err)
	}

	sources := deps.Sources
	if sources == nil {
		sources = source.NewRegistry()
	}

	var oracleTier ementa.Strategy
	if deps.Oracle != nil {
		oracleTier = ementa.NewOracleExtractor(deps.Oracle, cfg.Pipeline.EmentaHTMLPrefixChars)
	}

	correctCfg := correct.ConfigFromModel(cfg.Pipeline)
	if cfg.LLM.MaxTokens > 0 {
		correctCfg.MaxTokens = cfg.LLM.MaxTokens
	}

	return &Pipeline{
		fetcher:    deps.Fetcher,
		sources:    sources,
		normalizer: normalize.New(normalize.Options{}),
		speech:     normalize.ForSpeech(cfg.Normalize.SpeechAbbreviations),
		segmenter:  segment.New(segment.Options{}),
		ementa:     ementa.NewChain(ementa.NewDeterministic(), oracleTier),
		validator:  validate.New(validate.ConfigFromModel(cfg.Pipeline)),
		corrector:  correct.New(deps.Oracle, correctCfg),
		acts:       extractor,
		scorer:     score.NewScorer(),
		store:      deps.Store,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		config:     cfg,
		now:        time.Now,
	}, nil
}

// Input is one act to process
type Input struct {
	Raw         string
	URL         string
	ContentType string
	// Key and Label identify the act; derived from the identification line
	// when empty
	Key   model.ActKey
	Label string
	// Ementa known from a listing page, used when no tier finds one
	Ementa string
	Fetch  *model.FetchMeta
}

// Process runs the full cycle over an in-memory source and persists the
// result when a store is configured. Only blank input is an error; every
// degraded case is reported on the returned act.
func (p *Pipeline) Process(ctx context.Context, in Input) (*model.StructuredAct, error) {
	act, err := p.run(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := p.persist(ctx, act); err != nil {
		return act, err
	}
	return act, nil
}

// ProcessURL fetches the act page and processes it. When the page came from
// cache and the result is not approved, the source is fetched once more
// bypassing the cache and the better of the two runs is kept.
func (p *Pipeline) ProcessURL(ctx context.Context, rawURL string) (*model.StructuredAct, error) {
	return p.ProcessRecord(ctx, model.ActRecord{SourceURL: rawURL})
}

// ProcessRecord processes an act discovered on a listing page; the record's
// key and abstract seed the act identity and the ementa fallback
func (p *Pipeline) ProcessRecord(ctx context.Context, rec model.ActRecord) (*model.StructuredAct, error) {
	if p.fetcher == nil {
		return nil, ErrNoFetcher
	}

	in := Input{URL: rec.SourceURL, Ementa: rec.Abstract}
	if rec.ActType != "" && rec.ActNumber != "" {
		in.Key = rec.Key()
		in.Label = rec.Label()
	}

	page, err := p.fetcher.Get(ctx, rec.SourceURL, false)
	if err != nil {
		log.Warn().Err(err).Str("url", rec.SourceURL).Msg("Fetch deferred")
		return p.fetchDeferred(in, err), nil
	}

	act, err := p.run(ctx, in.withPage(page))
	if err != nil {
		return nil, err
	}

	if page.Meta.FromCache && p.config.Pipeline.RefetchOnReject && !act.Score.Approved {
		log.Info().Str("url", rec.SourceURL).Int("score", act.Score.Index).Msg("Cached snapshot rejected, re-fetching source")
		if fresh, err := p.fetcher.Get(ctx, rec.SourceURL, true); err != nil {
			log.Warn().Err(err).Str("url", rec.SourceURL).Msg("Re-fetch failed, keeping cached run")
		} else if second, err := p.run(ctx, in.withPage(fresh)); err == nil && better(second, act) {
			act = second
		}
	}

	if err := p.persist(ctx, act); err != nil {
		return act, err
	}
	return act, nil
}

func (in Input) withPage(page *FetchResult) Input {
	in.Raw = page.HTML
	in.ContentType = page.Meta.ContentType
	meta := page.Meta
	in.Fetch = &meta
	if page.FinalURL != "" {
		in.URL = page.FinalURL
	}
	return in
}

// better prefers approval, then the higher index
func better(a, b *model.StructuredAct) bool {
	if a.Score.Approved != b.Score.Approved {
		return a.Score.Approved
	}
	return a.Score.Index > b.Score.Index
}

// fetchDeferred is the result for a page that could not be fetched
func (p *Pipeline) fetchDeferred(in Input, err error) *model.StructuredAct {
	return &model.StructuredAct{
		RunID:       uuid.NewString(),
		Key:         in.Key,
		Label:       in.Label,
		SourceURL:   in.URL,
		ProcessedAt: p.now().UTC(),
		Status:      model.StageDeferred,
		Ementa:      in.Ementa,
		Correction:  model.CorrectionSkipped,
		Conditions:  []model.Condition{condition(model.ConditionFetchDeferred, "extração adiada: %v", err)},
	}
}

func (p *Pipeline) run(ctx context.Context, in Input) (*model.StructuredAct, error) {
	norm, err := p.NormalizeStage(in)
	if err != nil {
		return nil, err
	}
	conditions := append([]model.Condition(nil), norm.Conditions...)

	seg := p.SegmentStage(norm.Value)
	conditions = append(conditions, seg.Conditions...)
	elements := seg.Value.Elements

	key, label := in.Key, in.Label
	if key.Number == "" {
		if found, ok := acts.IdentifyElements(elements); ok {
			key = found
		}
	}
	if label == "" && key.Number != "" {
		label = key.Label()
	}

	log.Debug().Str("act", label).Int("elements", len(elements)).Int("anchors", seg.Value.Anchors).Msg("Segmented")

	// ementa: header, extraction tiers, listing abstract, stored act
	em := p.EmentaStage(ctx, in.Raw, label, elements)
	text := em.Value
	if text == "" && in.Ementa != "" {
		if accepted, ok := ementa.Accept(in.Ementa); ok {
			text = accepted
		}
	}
	if text == "" {
		text = p.storedEmenta(ctx, key)
	}
	if text == "" {
		conditions = append(conditions, em.Conditions...)
	} else if _, inHeader := model.FindEmenta(elements); !inHeader && len(elements) > 0 {
		elements = insertEmenta(elements, text)
	}

	validation := p.ValidateStage(elements)
	correction := model.CorrectionSkipped
	if validation.Value.NeedsCorrection {
		fixed := p.CorrectStage(ctx, elements, validation.Value.Verdicts, norm.Value)
		correction = fixed.Value.Status
		conditions = append(conditions, fixed.Conditions...)
		if fixed.Value.Status == model.CorrectionApplied {
			elements = fixed.Value.Elements
			validation = p.ValidateStage(elements)
		}
	}
	conditions = append(conditions, validation.Conditions...)

	summary := validation.Value.Summary
	act := &model.StructuredAct{
		RunID:        uuid.NewString(),
		Key:          key,
		Label:        label,
		SourceURL:    in.URL,
		Fetch:        in.Fetch,
		ProcessedAt:  p.now().UTC(),
		Ementa:       text,
		Elements:     elements,
		Verdicts:     validation.Value.Verdicts,
		Summary:      summary,
		Completeness: validation.Value.Completeness,
		Correction:   correction,
		Conditions:   conditions,
	}
	act.Score = p.scorer.Calculate(score.Input{
		Elements:      len(elements),
		Anchors:       seg.Value.Anchors,
		LowConfidence: seg.Value.LowConfidence,
		Completeness:  act.Completeness,
		Summary:       summary,
		HasEmenta:     text != "",
		Correction:    correction,
		Conditions:    conditions,
	})

	act.Status = model.StageDeferred
	if summary.Approved && text != "" {
		act.Status = model.StageOK
	}

	log.Info().
		Str("act", label).
		Str("status", string(act.Status)).
		Int("score", act.Score.Index).
		Float64("percent_ok", summary.PercentOK).
		Str("correction", string(correction)).
		Msg("Act processed")

	return act, nil
}

// storedEmenta reads the ementa of a previously persisted run
func (p *Pipeline) storedEmenta(ctx context.Context, key model.ActKey) string {
	if p.store == nil || key.Number == "" {
		return ""
	}
	existing, err := p.store.FetchAct(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("act", key.String()).Msg("Reading stored act failed")
		}
		return ""
	}
	return existing.Ementa
}

func (p *Pipeline) persist(ctx context.Context, act *model.StructuredAct) error {
	if p.store == nil {
		return nil
	}
	if act.Key.Number == "" {
		log.Warn().Str("url", act.SourceURL).Msg("Act not identified, not persisted")
		return nil
	}
	if err := p.store.SaveAct(ctx, act); err != nil {
		return fmt.Errorf("save act: %w", err)
	}
	return nil
}

// DiscoverActs fetches a listing page and extracts its act records
func (p *Pipeline) DiscoverActs(ctx context.Context, listingURL string, actType model.ActType) (StageResult[[]model.ActRecord], error) {
	if p.fetcher == nil {
		return StageResult[[]model.ActRecord]{Status: model.StageError}, ErrNoFetcher
	}
	page, err := p.fetcher.Get(ctx, listingURL, false)
	if err != nil {
		return StageResult[[]model.ActRecord]{
			Status:     model.StageDeferred,
			Conditions: []model.Condition{condition(model.ConditionFetchDeferred, "listagem não obtida: %v", err)},
		}, nil
	}
	return p.ActsStage(page.HTML, page.FinalURL, actType)
}

// Store returns the configured store, nil when persistence is off
func (p *Pipeline) Store() store.ActStore {
	return p.store
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() *model.Config {
	return p.config
}

// RenderAct renders the act to the specified outputs and prints the summary
func (p *Pipeline) RenderAct(act *model.StructuredAct, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(act, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(act, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(os.Stderr, act)
	return nil
}
