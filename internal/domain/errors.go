package domain

import "errors"

// Error taxonomy. Services wrap these with context; the HTTP layer maps
// them to statuses with errors.Is.
var (
	ErrBadRequest   = errors.New("bad_request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)
