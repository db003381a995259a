package membership

import "errors"

var (
	// ErrAlreadyMember indicates a re-purchase while the membership is active.
	ErrAlreadyMember = errors.New("membership: already a premium member")
)
