// store/store.go

// Package store persists contacts, scoped by workspace.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ViniZap4/lumi-estimates/domain"
)

var (
	ErrNotFound = errors.New("contact not found")
	ErrConflict = errors.New("contact already exists")
	ErrInvalid  = errors.New("invalid contact")
)

// ContactStore is implemented by Memory and Postgres. A contact that belongs
// to another workspace is reported as ErrNotFound.
type ContactStore interface {
	Create(ctx context.Context, c *domain.Contact) error
	Get(ctx context.Context, workspaceID, id string) (*domain.Contact, error)
	FindByEmail(ctx context.Context, workspaceID, email string) (*domain.Contact, error)
	List(ctx context.Context, workspaceID string) ([]*domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact) error
	Delete(ctx context.Context, workspaceID, id string) error
}

func validate(c *domain.Contact) error {
	if c == nil {
		return ErrInvalid
	}
	if strings.TrimSpace(c.WorkspaceID) == "" {
		return fmt.Errorf("%w: workspace required", ErrInvalid)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalid)
	}
	return nil
}

func sameEmail(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
