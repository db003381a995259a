package transfer

import "errors"

var (
	// ErrInsufficientFunds indicates the sender's balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("transfer: insufficient funds")

	// ErrNotOwner indicates the sender does not own the token being moved.
	ErrNotOwner = errors.New("transfer: sender does not own token")

	// ErrUnknownToken indicates the token id has never been minted.
	ErrUnknownToken = errors.New("transfer: unknown token id")

	// ErrLengthMismatch indicates batch argument slices differ in length.
	ErrLengthMismatch = errors.New("transfer: batch arguments differ in length")
)
