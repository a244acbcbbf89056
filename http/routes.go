// http/routes.go
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// App builds the fiber application with every route mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lumi-estimates",
		ErrorHandler:          s.ErrorHandler,
		DisableStartupMessage: true,
		BodyLimit:             1 << 20,
	})

	app.Use(recover.New())
	app.Use(s.requestLogger)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, X-Lumi-Token",
	}))

	app.Get("/healthz", s.HandleHealth)

	api := app.Group("/api", s.auth.Middleware())
	api.Post("/notes/parse", s.HandleParseNotes)
	api.Post("/notes/summary", s.HandleSummary)

	api.Get("/contacts", s.HandleContacts)
	api.Post("/contacts", s.HandleCreateContact)
	api.Get("/contacts/:id", s.HandleGetContact)
	api.Put("/contacts/:id", s.HandleUpdateContact)
	api.Delete("/contacts/:id", s.HandleDeleteContact)
	api.Get("/contacts/:id/parsed", s.HandleParsedContact)
	api.Post("/contacts/:id/reparse", s.HandleReparseContact)

	api.Get("/events", s.HandleEvents)

	return app
}

// requestLogger logs one line per request. Errors are rendered here so the
// logged status is the one the client sees.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeader, id)

	if err := c.Next(); err != nil {
		if herr := s.ErrorHandler(c, err); herr != nil {
			return herr
		}
	}

	s.log.Info().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request")
	return nil
}
