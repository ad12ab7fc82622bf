package types

import "errors"

var (
	// ErrNotFound is returned when a record is absent or the caller has no
	// access to it. The two cases are deliberately indistinguishable so a
	// non-participant cannot probe for the existence of an email.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest is returned for malformed or incomplete input
	ErrBadRequest = errors.New("bad request")

	// ErrInvalidEmail is returned when the email address is invalid
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrUserExists is returned when registering an already taken email address
	ErrUserExists = errors.New("user already exists")

	// ErrNotAuthorized is returned on failed credential or session checks
	ErrNotAuthorized = errors.New("not authorized")

	// ErrConflict is returned when the resource conflicts with existing state
	ErrConflict = errors.New("conflict")

	// ErrTransaction is returned when a bulk operation could not commit.
	// The entire batch is rolled back; no partial flag flips survive.
	ErrTransaction = errors.New("transaction failed")

	// ErrTooManyRequests is returned when a rate limit window is exhausted
	ErrTooManyRequests = errors.New("too many requests")

	// ErrInternal (for unhandled exceptions)
	ErrInternal = errors.New("internal error")
)
