package repository

import "errors"

// Sentinel kinds for result sink errors.
var (
	ErrNotFound       = errors.New("attribution result not found")
	ErrMissingOutcome = errors.New("result has no outcome id")
)
