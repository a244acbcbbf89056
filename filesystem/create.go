// filesystem/create.go
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/google/uuid"
)

// CreateContactFile writes c to dir as <id>.md, assigning an ID and
// timestamps when they are missing.
func CreateContactFile(dir string, c *domain.Contact) error {
	now := time.Now().UTC()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	c.Path = filepath.Join(dir, c.ID+".md")

	return WriteContact(c)
}
