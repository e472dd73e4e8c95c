package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/pipeline"
)

// StageAPI exposes each pipeline stage as its own endpoint
type StageAPI struct {
	Router   fiber.Router
	Pipeline *pipeline.Pipeline
}

// Register mounts the stage routes
func (api *StageAPI) Register() {
	api.Router.Post("/normalize", api.normalize)
	api.Router.Post("/segment", api.segment)
	api.Router.Post("/ementa", api.ementa)
	api.Router.Post("/validate", api.validate)
	api.Router.Post("/validate/stream", api.validateStream)
	api.Router.Post("/correct", api.correct)
	api.Router.Post("/acts", api.acts)
	api.Router.Post("/process", api.process)
}

func (api *StageAPI) normalize(c *fiber.Ctx) error {
	var req normalizeRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}

	in := pipeline.Input{Raw: req.Raw, URL: req.URL, ContentType: req.ContentType}
	stage := api.Pipeline.NormalizeStage
	if req.Speech {
		stage = api.Pipeline.SpeechStage
	}
	res, err := stage(in)
	if err != nil {
		return applyError(c, "Normalization failed", err)
	}
	return applySuccess(c, res)
}

func (api *StageAPI) segment(c *fiber.Ctx) error {
	var req segmentRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return applyError(c, "Segmentation failed", pipeline.ErrNoInput)
	}
	return applySuccess(c, api.Pipeline.SegmentStage(req.Text))
}

func (api *StageAPI) ementa(c *fiber.Ctx) error {
	var req ementaRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}
	if strings.TrimSpace(req.HTML) == "" && len(req.Elements) == 0 {
		return applyError(c, "Ementa extraction failed", pipeline.ErrNoInput)
	}
	return applySuccess(c, api.Pipeline.EmentaStage(c.UserContext(), req.HTML, req.Label, ordered(req.Elements)))
}

func (api *StageAPI) validate(c *fiber.Ctx) error {
	var req elementsRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}
	if err := requireElements(req.Elements); err != nil {
		return applyError(c, "Validation failed", err)
	}
	return applySuccess(c, api.Pipeline.ValidateStage(ordered(req.Elements)))
}

// validateStream sends one "verdict" event per element as it is validated,
// then a closing "summary" event
func (api *StageAPI) validateStream(c *fiber.Ctx) error {
	var req elementsRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}
	if err := requireElements(req.Elements); err != nil {
		return applyError(c, "Validation failed", err)
	}
	elements := ordered(req.Elements)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		var writeErr error
		summary := api.Pipeline.StreamVerdicts(elements, func(v model.ValidationVerdict) bool {
			if writeErr = writeEvent(w, "verdict", v); writeErr != nil {
				return false
			}
			return true
		})
		if writeErr != nil {
			log.Debug().Err(writeErr).Msg("Verdict stream closed by client")
			return
		}
		if err := writeEvent(w, "summary", summary); err != nil {
			log.Debug().Err(err).Msg("Verdict stream closed by client")
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

func (api *StageAPI) correct(c *fiber.Ctx) error {
	var req correctRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}
	if err := requireElements(req.Elements); err != nil {
		return applyError(c, "Correction failed", err)
	}

	elements := ordered(req.Elements)
	verdicts := req.Verdicts
	if len(verdicts) == 0 {
		verdicts = api.Pipeline.ValidateStage(elements).Value.Verdicts
	}
	return applySuccess(c, api.Pipeline.CorrectStage(c.UserContext(), elements, verdicts, req.Raw))
}

func (api *StageAPI) acts(c *fiber.Ctx) error {
	var req actsRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}
	actType, err := parseActType(req.ActType)
	if err != nil {
		return applyError(c, "Invalid request", err)
	}

	res, err := api.Pipeline.ActsStage(req.HTML, req.BaseURL, actType)
	if err != nil {
		return applyError(c, "Act extraction failed", err)
	}
	return applySuccess(c, res)
}

// process runs the whole cycle over the posted source, or fetches the URL
// when no source is posted
func (api *StageAPI) process(c *fiber.Ctx) error {
	var req processRequest
	if err := parse(c, &req); err != nil {
		return applyError(c, "Invalid request", err)
	}

	ctx := c.UserContext()
	var (
		act *model.StructuredAct
		err error
	)
	switch {
	case strings.TrimSpace(req.Raw) != "":
		act, err = api.Pipeline.Process(ctx, pipeline.Input{
			Raw:         req.Raw,
			URL:         req.URL,
			ContentType: req.ContentType,
			Ementa:      req.Ementa,
		})
	case strings.TrimSpace(req.URL) != "":
		act, err = api.Pipeline.ProcessRecord(ctx, model.ActRecord{SourceURL: req.URL, Abstract: req.Ementa})
	default:
		err = pipeline.ErrNoInput
	}

	if err != nil && act == nil {
		return applyError(c, "Processing failed", err)
	}
	if err != nil {
		// processed but not persisted
		log.Warn().Err(err).Str("act", act.Label).Msg("Act not persisted")
	}
	return applySuccess(c, act)
}
