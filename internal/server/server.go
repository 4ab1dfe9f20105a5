// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/jhagelund/snaplist/internal/draft"
	"github.com/jhagelund/snaplist/internal/jobs"
	"github.com/jhagelund/snaplist/internal/market"
	"github.com/jhagelund/snaplist/internal/metrics"
	"github.com/jhagelund/snaplist/internal/storage"
)

// Photos from current phones are a few MB; normalized server-side anyway.
const maxUploadBytes = 10 * 1024 * 1024

type Server struct {
	app          *fiber.App
	runner       *jobs.Runner
	store        storage.Store
	orchestrator *draft.Orchestrator
	researcher   market.Researcher
	cacheEnabled bool
}

type Opts struct {
	Runner       *jobs.Runner
	Store        storage.Store
	Orchestrator *draft.Orchestrator
	Researcher   market.Researcher
	Metrics      *metrics.Registry
	CacheEnabled bool
}

func New(opts Opts) *Server {
	app := fiber.New(fiber.Config{
		AppName:   "snaplist",
		BodyLimit: maxUploadBytes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Default 500 statuscode
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			// Retrieve the custom statuscode if it's a *fiber.Error
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": msg,
			})
		},
	})

	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${method} ${path} - ${ip} - ${latency}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	s := &Server{
		app:          app,
		runner:       opts.Runner,
		store:        opts.Store,
		orchestrator: opts.Orchestrator,
		researcher:   opts.Researcher,
		cacheEnabled: opts.CacheEnabled,
	}

	app.Get("/health", s.handleHealth)
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Post("/analyze-product", s.handleAnalyze)
	api.Get("/status/:id", s.handleStatus)
	api.Get("/listings/:id", s.handleListing)
	api.Post("/listings/:id/publish", s.handlePublish)

	return s
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// ShutdownWithContext gracefully stops the server, bounded by ctx.
func (s *Server) ShutdownWithContext(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying fiber app for in-process request tests.
func (s *Server) App() *fiber.App {
	return s.app
}
