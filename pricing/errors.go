package pricing

import "errors"

var (
	// ErrPercentRange indicates a discount percent above 100.
	ErrPercentRange = errors.New("pricing: percent must be in [0,100]")
)
