package config

import "errors"

var (
	// ErrZeroOwner indicates the administrator address is unset.
	ErrZeroOwner = errors.New("config: owner address must not be zero")

	// ErrNilPrice indicates a price table entry is missing.
	ErrNilPrice = errors.New("config: price table entry must not be nil")

	// ErrInvalidAmount indicates an amount could not be parsed.
	ErrInvalidAmount = errors.New("config: invalid amount")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
