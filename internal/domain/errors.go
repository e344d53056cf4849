package domain

import "errors"

// Error taxonomy shared by the store, the remote client and the HTTP layer.
var (
	// ErrValidation: missing or malformed required field. Not retried.
	ErrValidation = errors.New("validation failed")
	// ErrAuth: no authenticated identity is bound.
	ErrAuth = errors.New("authentication required")
	// ErrNotFound: referenced id is absent, usually a race with a delete.
	ErrNotFound = errors.New("not found")
	// ErrTransport: the remote store could not be reached or rejected the call.
	ErrTransport = errors.New("transport failure")
)
