// Package pkg holds small utilities shared across layers.
//
// This file defines the domain-level sentinel errors. Services return them
// (usually wrapped with fmt.Errorf("%w: ...")) and the handler layer maps
// them to HTTP status codes with errors.Is — status mapping lives in exactly
// one place (pkg.Error).
package pkg

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)
