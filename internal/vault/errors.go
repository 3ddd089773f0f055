package vault

import "errors"

var (
	// ErrInvalidConfig is returned by New for a zero iteration count.
	ErrInvalidConfig = errors.New("invalid vault configuration")
	// ErrAccountNotFound is returned when verifying an account that is not stored.
	ErrAccountNotFound = errors.New("account does not exist")
	// ErrWrongPassword covers both a wrong account password and a wrong master
	// password; the two cannot be told apart.
	ErrWrongPassword = errors.New("wrong password")
	// ErrCorrupt is returned by FromSnapshot for malformed persisted data.
	ErrCorrupt = errors.New("vault snapshot is corrupt")
)
