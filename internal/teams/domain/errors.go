package domain

import "errors"

// Error taxonomy shared by every layer. Detailed errors wrap one of these
// so callers can branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
