// filesystem/import.go
package filesystem

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Upserter stores an imported contact; *contacts.Service implements it.
type Upserter interface {
	Upsert(ctx context.Context, c *domain.Contact) (created bool, err error)
}

type ImportResult struct {
	Created int
	Updated int
	Skipped int
}

// Import loads every contact file in dir into workspaceID.
func Import(ctx context.Context, dir, workspaceID string, dst Upserter, log zerolog.Logger) (ImportResult, error) {
	var result ImportResult

	contacts, skipped, err := ListContacts(dir)
	if err != nil {
		return result, fmt.Errorf("failed to list contacts in %s: %w", dir, err)
	}
	for path, err := range skipped {
		log.Warn().Err(err).Str("path", path).Msg("skipping contact file")
		result.Skipped++
	}

	for _, c := range contacts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, err := importContact(ctx, c, workspaceID, dst)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Path).Msg("failed to import contact")
			result.Skipped++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	return result, nil
}

// ImportFile loads a single contact file into workspaceID.
func ImportFile(ctx context.Context, path, workspaceID string, dst Upserter) (bool, error) {
	c, err := ReadContact(path)
	if err != nil {
		return false, err
	}
	return importContact(ctx, c, workspaceID, dst)
}

func importContact(ctx context.Context, c *domain.Contact, workspaceID string, dst Upserter) (bool, error) {
	c.WorkspaceID = workspaceID
	if c.ID != "" {
		if _, err := uuid.Parse(c.ID); err != nil {
			// hand-written ids are not valid storage keys
			c.ID = ""
		}
	}
	return dst.Upsert(ctx, c)
}

// Watch calls fn for every contact file created or written in dir until ctx
// is done.
func Watch(ctx context.Context, dir string, fn func(path string), log zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isContactFile(filepath.Base(event.Name)) {
				continue
			}
			fn(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("dir", dir).Msg("watch error")
		}
	}
}
