package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ppiankov/estatuto/internal/model"
)

var errBadRequest = errors.New("bad request")

type normalizeRequest struct {
	Raw         string `json:"raw"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	// Speech expands legal abbreviations for text read aloud
	Speech bool `json:"speech"`
}

type segmentRequest struct {
	Text string `json:"text"`
}

type ementaRequest struct {
	HTML     string                  `json:"html"`
	Label    string                  `json:"label"`
	Elements []model.DocumentElement `json:"elements"`
}

type elementsRequest struct {
	Elements []model.DocumentElement `json:"elements"`
}

type correctRequest struct {
	Elements []model.DocumentElement   `json:"elements"`
	Verdicts []model.ValidationVerdict `json:"verdicts"`
	Raw      string                    `json:"raw"`
}

type actsRequest struct {
	HTML    string `json:"html"`
	BaseURL string `json:"base_url"`
	ActType string `json:"act_type"`
}

type processRequest struct {
	Raw         string `json:"raw"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Ementa      string `json:"ementa"`
}

func parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// ordered gives client-supplied elements contiguous orders when they came
// without any
func ordered(elements []model.DocumentElement) []model.DocumentElement {
	for i, e := range elements {
		if e.Order != i+1 {
			model.Renumber(elements)
			break
		}
	}
	return elements
}

func requireElements(elements []model.DocumentElement) error {
	if len(elements) == 0 {
		return fmt.Errorf("%w: no elements", errBadRequest)
	}
	return nil
}

func parseActType(s string) (model.ActType, error) {
	if strings.TrimSpace(s) == "" {
		return model.ActOrdinaryLaw, nil
	}
	t, ok := model.ParseActType(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown act type %q", errBadRequest, s)
	}
	return t, nil
}
