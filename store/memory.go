// store/memory.go
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/google/uuid"
)

// Memory keeps contacts in process. It backs development runs without a
// database and the HTTP tests.
type Memory struct {
	mu       sync.RWMutex
	contacts map[string]*domain.Contact
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		contacts: make(map[string]*domain.Contact),
		now:      time.Now,
	}
}

func (m *Memory) Create(ctx context.Context, c *domain.Contact) error {
	if err := validate(c); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := m.contacts[c.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrConflict, c.ID)
	}
	if err := m.checkEmailLocked(c); err != nil {
		return err
	}

	now := m.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	m.contacts[c.ID] = clone(c)
	return nil
}

func (m *Memory) Get(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (m *Memory) FindByEmail(ctx context.Context, workspaceID, email string) (*domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.contacts {
		if c.WorkspaceID == workspaceID && sameEmail(c.Email, email) {
			return clone(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) List(ctx context.Context, workspaceID string) ([]*domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contacts := []*domain.Contact{}
	for _, c := range m.contacts {
		if c.WorkspaceID == workspaceID {
			contacts = append(contacts, clone(c))
		}
	}
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID < contacts[j].ID
		}
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
	return contacts, nil
}

func (m *Memory) Update(ctx context.Context, c *domain.Contact) error {
	if err := validate(c); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.contacts[c.ID]
	if !ok || existing.WorkspaceID != c.WorkspaceID {
		return ErrNotFound
	}
	if err := m.checkEmailLocked(c); err != nil {
		return err
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = m.now().UTC()
	m.contacts[c.ID] = clone(c)
	return nil
}

func (m *Memory) Delete(ctx context.Context, workspaceID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contacts[id]
	if !ok || c.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *Memory) checkEmailLocked(c *domain.Contact) error {
	for id, other := range m.contacts {
		if id != c.ID && other.WorkspaceID == c.WorkspaceID && sameEmail(other.Email, c.Email) {
			return fmt.Errorf("%w: email %s", ErrConflict, c.Email)
		}
	}
	return nil
}

func clone(c *domain.Contact) *domain.Contact {
	cp := *c
	return &cp
}
