package engine

import (
	"errors"

	"github.com/multisendorg/libmultisend-go/membership"
)

var (
	// ErrUnauthorized indicates an owner-only operation called by a non-owner.
	ErrUnauthorized = errors.New("engine: operation restricted to owner")

	// ErrInsufficientPayment indicates the attached value is below the required fee.
	ErrInsufficientPayment = errors.New("engine: attached value below required fee")

	// ErrLengthMismatch indicates batch argument arrays differ in length.
	ErrLengthMismatch = errors.New("engine: batch arrays differ in length")

	// ErrAmountMismatch indicates the declared total does not equal the sum of amounts.
	ErrAmountMismatch = errors.New("engine: declared total does not match sum of amounts")

	// ErrPayoutFailed indicates a required value transfer did not complete.
	ErrPayoutFailed = errors.New("engine: value transfer did not complete")

	// ErrZeroAccount indicates the engine holding account is unset.
	ErrZeroAccount = errors.New("engine: holding account must not be zero")

	// ErrNilLedger indicates no native-currency ledger was supplied.
	ErrNilLedger = errors.New("engine: native ledger must not be nil")

	// ErrNilToken indicates a nil token callee was supplied.
	ErrNilToken = errors.New("engine: token callee must not be nil")

	// ErrAlreadyMember indicates a membership re-purchase while still active.
	ErrAlreadyMember = membership.ErrAlreadyMember
)
