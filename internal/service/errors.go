package service

import "errors"

var (
	// ErrInvalidToken is returned when a presented refresh token is
	// absent, expired, revoked or detected as reused. Callers deliberately
	// cannot distinguish these cases; the logs can.
	ErrInvalidToken = errors.New("invalid refresh token")

	// ErrNotFound is returned when an account referenced by verified
	// claims does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrAccountInactive is returned when the resolved account has been
	// administratively deactivated.
	ErrAccountInactive = errors.New("account is inactive")
)
