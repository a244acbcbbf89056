// domain/contact.go
package domain

import "time"

type Contact struct {
	ID          string     `json:"id" yaml:"id,omitempty"`
	WorkspaceID string     `json:"workspace_id" yaml:"-"`
	Name        string     `json:"name" yaml:"name"`
	Email       string     `json:"email,omitempty" yaml:"email,omitempty"`
	Phone       string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	Notes       string     `json:"notes" yaml:"-"`
	Parsed      ParsedNote `json:"parsed" yaml:"-"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at,omitempty"`
	Path        string     `json:"-" yaml:"-"`
}

type Workspace struct {
	ID   string `json:"id" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}
