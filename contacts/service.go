// contacts/service.go

// Package contacts keeps a contact's parsed notes in step with its raw notes
// and announces changes.
package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/ViniZap4/lumi-estimates/notes"
	"github.com/ViniZap4/lumi-estimates/store"
	"github.com/ViniZap4/lumi-estimates/ws"
	"github.com/rs/zerolog"
)

// Publisher receives contact change events; *ws.Hub implements it.
type Publisher interface {
	Broadcast(eventType string, contact *domain.Contact)
}

type Options struct {
	// NormalizeUnicode runs notes.Clean before parsing.
	NormalizeUnicode bool
}

type Service struct {
	store  store.ContactStore
	events Publisher
	opts   Options
	log    zerolog.Logger
}

func NewService(st store.ContactStore, events Publisher, log zerolog.Logger, opts Options) *Service {
	return &Service{store: st, events: events, opts: opts, log: log}
}

// Parse parses free text with the service's options.
func (s *Service) Parse(text string) domain.ParsedNote {
	if s.opts.NormalizeUnicode {
		text = notes.Clean(text)
	}
	return notes.Parse(text)
}

func (s *Service) Create(ctx context.Context, c *domain.Contact) error {
	c.Parsed = s.Parse(c.Notes)
	if err := s.store.Create(ctx, c); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	s.publish(ws.EventContactCreated, c)
	return nil
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	return s.store.Get(ctx, workspaceID, id)
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]*domain.Contact, error) {
	return s.store.List(ctx, workspaceID)
}

func (s *Service) Update(ctx context.Context, c *domain.Contact) error {
	c.Parsed = s.Parse(c.Notes)
	if err := s.store.Update(ctx, c); err != nil {
		return fmt.Errorf("update contact %s: %w", c.ID, err)
	}
	s.publish(ws.EventContactUpdated, c)
	return nil
}

func (s *Service) Delete(ctx context.Context, workspaceID, id string) error {
	c, err := s.store.Get(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, workspaceID, id); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	s.publish(ws.EventContactDeleted, c)
	return nil
}

// Reparse rebuilds the parsed form from the stored notes, e.g. after the
// field table changed.
func (s *Service) Reparse(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	c, err := s.store.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if err := s.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Upsert updates the contact with c's ID, or else the one sharing c's email
// in its workspace, and creates c when neither exists. It reports whether a
// contact was created.
func (s *Service) Upsert(ctx context.Context, c *domain.Contact) (bool, error) {
	if c.ID != "" {
		_, err := s.store.Get(ctx, c.WorkspaceID, c.ID)
		switch {
		case err == nil:
			return false, s.Update(ctx, c)
		case !errors.Is(err, store.ErrNotFound):
			return false, err
		}
	}
	if c.Email != "" {
		existing, err := s.store.FindByEmail(ctx, c.WorkspaceID, c.Email)
		switch {
		case err == nil:
			c.ID = existing.ID
			return false, s.Update(ctx, c)
		case !errors.Is(err, store.ErrNotFound):
			return false, err
		}
	}
	return true, s.Create(ctx, c)
}

func (s *Service) publish(eventType string, c *domain.Contact) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(eventType, c)
	s.log.Debug().Str("event", eventType).Str("contact", c.ID).Msg("contact event published")
}
