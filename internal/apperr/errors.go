// Package apperr holds sentinel errors shared across the vault and manifest pipelines.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedFrontmatter marks a metadata block that opens with a
	// delimiter but cannot be read back as flat key-value data.
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")
)
