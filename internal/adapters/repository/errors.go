package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrPersonaLimit = errors.New("persona limit reached")
	ErrMissingOwner = errors.New("owner id is required")
)
