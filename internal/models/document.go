// Package models defines the domain types shared across vaultkit.
package models

import (
	"time"

	"github.com/starford/vaultkit/internal/frontmatter"
)

// Document represents a parsed Markdown note in the vault.
type Document struct {
	Path       string                `json:"path"`
	Title      string                `json:"title"`
	Tags       []string              `json:"tags,omitempty"`
	InlineTags []string              `json:"inline_tags,omitempty"`
	Related    []string              `json:"related,omitempty"`
	References []string              `json:"references,omitempty"`
	Created    time.Time             `json:"created,omitzero"`
	Modified   time.Time             `json:"modified,omitzero"`
	Body       string                `json:"-"`
	WordCount  int                   `json:"word_count"`
	Checksum   string                `json:"checksum,omitempty"`
	Metadata   *frontmatter.Metadata `json:"-"`
}

// HasMetadata reports whether the note carried a well-formed metadata block.
func (d *Document) HasMetadata() bool { return d.Metadata != nil }

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the outcome of a batch run over the vault.
type Summary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}
