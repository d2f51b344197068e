package valuation

import "errors"

// Sentinel kinds for valuation errors.
var (
	ErrInvalidModel = errors.New("invalid valuation model")
)
