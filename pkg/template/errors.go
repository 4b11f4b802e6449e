package template

import "errors"

var (
	// ErrTemplateNotFound is returned when no active template exists for a type key.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExists is returned on an attempt to create a template whose
	// type key is already taken.
	ErrTemplateExists = errors.New("template type already exists")

	// ErrInvalidTemplate is returned when a template fails basic validation.
	ErrInvalidTemplate = errors.New("invalid template")
)
