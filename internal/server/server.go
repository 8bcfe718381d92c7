// Package server serves the chat backend API and the server-rendered web widget.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/models"
	"github.com/diogo/finking/internal/upstream"
	"github.com/diogo/finking/internal/widget"
)

// ContentSecurityPolicy is set on every response
const ContentSecurityPolicy = "default-src 'self'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data: https:; " +
	"form-action 'self'"

// Options holds the collaborators of a Server
type Options struct {
	Config    config.Config
	Completer upstream.Completer
	// Sender delivers web widget messages; usually an *api.Client pointed
	// at this server's own chat endpoint.
	Sender  widget.Sender
	Version string
}

// Server wires the fiber app to the completer and the widget sessions
type Server struct {
	app       *fiber.App
	cfg       config.Config
	completer upstream.Completer
	limiter   *rate.Limiter
	sessions  *Sessions
	version   string
}

// New creates a Server with all routes registered
func New(opts Options) *Server {
	s := &Server{
		cfg:       opts.Config,
		completer: opts.Completer,
		version:   opts.Version,
	}
	if s.version == "" {
		s.version = "dev"
	}

	if n := opts.Config.Server.RateLimitPerMinute; n > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}

	sender := opts.Sender
	s.sessions = NewSessions(func() *widget.Controller {
		return widget.NewController(sender)
	}, opts.Config.SessionIdle())

	// Immutable: form values outlive the request in the session logs.
	s.app = fiber.New(fiber.Config{
		AppName:               "finking",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger())
	s.app.Use(securityHeaders())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.Config.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	s.app.Post(models.PathChat, s.handleChat)
	s.app.Get(models.PathHealth, s.handleHealth)
	s.app.Get("/", s.handleIndex)
	s.app.Post("/send", s.handleSend)

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Sessions returns the web widget session store
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Bool("api_configured", s.completer.Configured()).Msg("starting server")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
		return c.Status(fiber.StatusNotFound).JSON(models.ChatResponse{Error: "Endpoint not found"})
	}
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(models.ChatResponse{Error: fe.Message})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return c.Status(fiber.StatusInternalServerError).JSON(models.ChatResponse{Error: "Internal server error"})
}

func securityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentSecurityPolicy, ContentSecurityPolicy)
		return c.Next()
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		event := log.Debug()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
		return err
	}
}
