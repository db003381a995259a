package affiliate

import "errors"

var (
	// ErrDuplicateCode indicates the code is already claimed by an active record.
	ErrDuplicateCode = errors.New("affiliate: code already registered")

	// ErrUnknownAffiliate indicates no record exists for the address.
	ErrUnknownAffiliate = errors.New("affiliate: unknown affiliate address")

	// ErrPercentRange indicates a commission percent above 100.
	ErrPercentRange = errors.New("affiliate: percent must be in [0,100]")
)
