// filesystem/parser.go
package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ViniZap4/lumi-estimates/domain"
	"gopkg.in/yaml.v3"
)

var errNoFrontmatter = errors.New("invalid frontmatter format")

// ReadContact reads a markdown contact file: YAML frontmatter with the
// contact fields, followed by the free-text notes.
func ReadContact(path string) (*domain.Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	contact := &domain.Contact{Path: path}

	// Split frontmatter and notes
	data = bytes.TrimLeft(data, "\ufeff \t\r\n")
	if !bytes.HasPrefix(data, []byte("---")) {
		return nil, errNoFrontmatter
	}
	parts := bytes.SplitN(data, []byte("---"), 3)
	if len(parts) < 3 {
		return nil, errNoFrontmatter
	}

	if err := yaml.Unmarshal(parts[1], contact); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	contact.Notes = string(bytes.TrimSpace(parts[2]))

	return contact, nil
}

func WriteContact(contact *domain.Contact) error {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(contact); err != nil {
		return fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.WriteString("---\n\n")
	buf.WriteString(contact.Notes)
	if contact.Notes != "" && !strings.HasSuffix(contact.Notes, "\n") {
		buf.WriteString("\n")
	}

	return os.WriteFile(contact.Path, buf.Bytes(), 0644)
}

// ListContacts reads every .md file directly under dir. Files that fail to
// parse are returned in skipped rather than as an error.
func ListContacts(dir string) (contacts []*domain.Contact, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	skipped = make(map[string]error)
	for _, entry := range entries {
		if entry.IsDir() || !isContactFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		contact, err := ReadContact(path)
		if err != nil {
			skipped[path] = err
			continue
		}
		contacts = append(contacts, contact)
	}

	return contacts, skipped, nil
}

func isContactFile(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".")
}
