package store

import "errors"

// Sentinel errors returned by store operations. Handlers map these to HTTP
// status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmailTaken        = errors.New("email already in use")
)
