package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateSubject is returned when an account with the same
	// external subject id already exists
	ErrDuplicateSubject = errors.New("account with this external subject already exists")

	// ErrDuplicateDisplayID is returned when a generated display id
	// collides with an existing one; callers regenerate and retry
	ErrDuplicateDisplayID = errors.New("display id already exists")

	// ErrDuplicateToken is returned when a refresh token value collides
	// with an existing one
	ErrDuplicateToken = errors.New("refresh token with this value already exists")
)
