// http/handlers.go
package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ViniZap4/lumi-estimates/auth"
	"github.com/ViniZap4/lumi-estimates/contacts"
	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/ViniZap4/lumi-estimates/notes"
	"github.com/ViniZap4/lumi-estimates/store"
	"github.com/ViniZap4/lumi-estimates/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const eventKeepAlive = 25 * time.Second

type Server struct {
	contacts *contacts.Service
	hub      *ws.Hub
	auth     *auth.Authenticator
	log      zerolog.Logger
}

func NewServer(svc *contacts.Service, hub *ws.Hub, authn *auth.Authenticator, log zerolog.Logger) *Server {
	return &Server{contacts: svc, hub: hub, auth: authn, log: log}
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

type parseRequest struct {
	Notes *string `json:"notes"`
}

type summaryResponse struct {
	Parsed  domain.ParsedNote `json:"parsed"`
	Summary notes.Summary     `json:"summary"`
}

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) HandleParseNotes(c *fiber.Ctx) error {
	text, err := notesFromBody(c)
	if err != nil {
		return err
	}
	return c.JSON(s.contacts.Parse(text))
}

func (s *Server) HandleSummary(c *fiber.Ctx) error {
	text, err := notesFromBody(c)
	if err != nil {
		return err
	}
	parsed := s.contacts.Parse(text)
	return c.JSON(summaryResponse{Parsed: parsed, Summary: notes.Summarize(parsed)})
}

// notesFromBody accepts either a text/plain body or JSON {"notes": "..."}.
// A missing or null notes field parses as empty.
func notesFromBody(c *fiber.Ctx) (string, error) {
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMETextPlain) {
		return string(c.Body()), nil
	}
	if len(c.Body()) == 0 {
		return "", nil
	}

	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Notes == nil {
		return "", nil
	}
	return *req.Notes, nil
}

func (s *Server) HandleContacts(c *fiber.Ctx) error {
	workspace, err := auth.WorkspaceFrom(c)
	if err != nil {
		return err
	}

	list, err := s.contacts.List(c.UserContext(), workspace.ID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) HandleCreateContact(c *fiber.Ctx) error {
	workspace, err := auth.WorkspaceFrom(c)
	if err != nil {
		return err
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	contact := &domain.Contact{
		WorkspaceID: workspace.ID,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Notes:       req.Notes,
	}
	if err := s.contacts.Create(c.UserContext(), contact); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(contact)
}

func (s *Server) HandleGetContact(c *fiber.Ctx) error {
	contact, err := s.contactFromPath(c)
	if err != nil {
		return err
	}
	return c.JSON(contact)
}

func (s *Server) HandleParsedContact(c *fiber.Ctx) error {
	contact, err := s.contactFromPath(c)
	if err != nil {
		return err
	}
	return c.JSON(contact.Parsed)
}

func (s *Server) HandleUpdateContact(c *fiber.Ctx) error {
	contact, err := s.contactFromPath(c)
	if err != nil {
		return err
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	contact.Name = strings.TrimSpace(req.Name)
	contact.Email = strings.TrimSpace(req.Email)
	contact.Phone = strings.TrimSpace(req.Phone)
	contact.Notes = req.Notes

	if err := s.contacts.Update(c.UserContext(), contact); err != nil {
		return err
	}
	return c.JSON(contact)
}

func (s *Server) HandleReparseContact(c *fiber.Ctx) error {
	workspace, err := auth.WorkspaceFrom(c)
	if err != nil {
		return err
	}

	contact, err := s.contacts.Reparse(c.UserContext(), workspace.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(contact)
}

func (s *Server) HandleDeleteContact(c *fiber.Ctx) error {
	workspace, err := auth.WorkspaceFrom(c)
	if err != nil {
		return err
	}

	if err := s.contacts.Delete(c.UserContext(), workspace.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleEvents streams the workspace's contact events as server-sent events.
func (s *Server) HandleEvents(c *fiber.Ctx) error {
	workspace, err := auth.WorkspaceFrom(c)
	if err != nil {
		return err
	}

	events, cancel := s.hub.Subscribe(workspace.ID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	log := s.log.With().Str("workspace", workspace.ID).Logger()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(eventKeepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					log.Error().Err(err).Str("event", event.Type).Msg("failed to encode event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Debug().Err(err).Msg("event stream closed")
				return
			}
		}
	}))
	return nil
}

func (s *Server) contactFromPath(c *fiber.Ctx) (*domain.Contact, error) {
	workspace, err := auth.WorkspaceFrom(c)
	if err != nil {
		return nil, err
	}
	id := c.Params("id")
	if id == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Contact ID required")
	}
	return s.contacts.Get(c.UserContext(), workspace.ID, id)
}

// ErrorHandler renders errors as {"error": "..."} with a status derived from
// the store and auth sentinel errors.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	case errors.Is(err, auth.ErrNoWorkspace):
		code, msg = fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, store.ErrNotFound):
		code, msg = fiber.StatusNotFound, "Contact not found"
	case errors.Is(err, store.ErrConflict):
		code, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, store.ErrInvalid):
		code, msg = fiber.StatusBadRequest, err.Error()
	}

	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
