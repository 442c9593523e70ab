package scoring

import "errors"

// Sentinel errors returned by Scorer implementations.
var (
	ErrMissingLeadID = errors.New("lead id is required")
	ErrCanceled      = errors.New("scoring canceled")
)
