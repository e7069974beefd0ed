package engine

import "errors"

// Structural errors surfaced to the API layer. Handlers map these onto HTTP
// status codes with errors.Is; everything else is treated as an internal
// storage failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrCircularReference = errors.New("circular reference")
	ErrInvalidState      = errors.New("invalid state")
)
