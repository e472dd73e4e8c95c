package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/pipeline"
)

// envelope is the body of every JSON response
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func applySuccess(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(envelope{Data: data})
}

// applyError maps err to a status code: missing input is the caller's
// fault, a missing fetcher means the server was started without one
func applyError(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.Is(err, pipeline.ErrNoInput), errors.Is(err, errBadRequest):
		status = fiber.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoFetcher):
		status = fiber.StatusServiceUnavailable
	case errors.As(err, &fe):
		status = fe.Code
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg(message)
	} else {
		log.Debug().Err(err).Str("path", c.Path()).Int("status", status).Msg(message)
	}

	body := envelope{Error: message}
	if err != nil {
		body.Error = message + ": " + err.Error()
	}
	return c.Status(status).JSON(body)
}

// errorHandler catches errors returned by handlers and middleware
func errorHandler(c *fiber.Ctx, err error) error {
	return applyError(c, "Request failed", err)
}
