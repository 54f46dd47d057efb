package checkout

import "errors"

// Caller-facing error classes. Handlers map them to HTTP statuses with
// errors.Is; anything else is an upstream failure and is not shown verbatim.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrExpired    = errors.New("pack expired")
	ErrUpstream   = errors.New("upstream failure")
)
