// Package apperr defines the sentinel errors shared across Skald layers.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a referenced notebook, snippet, or tag
	// id does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for empty required fields and invalid
	// structural changes. Failed operations leave the store untouched.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an operation cannot proceed against the
	// current state, e.g. deleting a notebook that still owns snippets or a
	// content update whose checksum precondition fails.
	ErrConflict = errors.New("conflict")

	// ErrMalformed is returned when a persisted or imported document cannot
	// be decoded. Nothing from the document has entered the store.
	ErrMalformed = errors.New("malformed document")
)
