package service

import "errors"

// Error taxonomy surfaced by every operation. REST controllers map these to
// status codes; the socket router logs and drops them.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrPersistence  = errors.New("persistence failed")
)
