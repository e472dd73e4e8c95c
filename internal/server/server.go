// Package server exposes the pipeline stages over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/pipeline"
)

// Server wraps the fiber app serving one pipeline
type Server struct {
	app      *fiber.App
	pipeline *pipeline.Pipeline
	cfg      model.ServerConfig
}

// New builds the app and registers every route
func New(p *pipeline.Pipeline, cfg model.ServerConfig) *Server {
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 16 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:               "estatuto",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	s := &Server{app: app, pipeline: p, cfg: cfg}

	app.Use(s.requestLog)
	app.Get("/health", s.health)

	stages := &StageAPI{Router: app.Group("/v1"), Pipeline: p}
	stages.Register()

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown
func (s *Server) Listen() error {
	log.Info().Str("listen", s.cfg.Listen).Msg("Serving")
	return s.app.Listen(s.cfg.Listen)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	return applySuccess(c, fiber.Map{
		"status": "ok",
		"store":  s.pipeline.Store() != nil,
	})
}

func (s *Server) requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("Request")
	return err
}
