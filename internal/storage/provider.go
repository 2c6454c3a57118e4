// Package storage defines the vault file-system abstraction.
package storage

import (
	"time"

	"github.com/starford/vaultkit/internal/models"
)

// Entry is a direct child of a vault directory.
type Entry struct {
	Name  string
	IsDir bool
}

// Provider is the interface for vault file operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// Root returns the absolute vault root.
	Root() string
	// List returns metadata for every .md file under dir, skipping ignored
	// directories. Only a failure to enumerate dir itself is returned.
	List(dir string) ([]models.NoteMetadata, error)
	// Skipped reports whether directories with this name are ignored.
	Skipped(name string) bool
	// ReadDir returns the visible direct children of dir, sorted by name.
	ReadDir(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Create writes content to a new file; it fails with apperr.ErrAlreadyExists
	// when path is taken.
	Create(path string, content []byte) error
	// Exists reports whether path exists.
	Exists(path string) bool
	// ModTime returns the last modification time of path.
	ModTime(path string) (time.Time, error)
}
