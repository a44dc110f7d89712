package lead

import "errors"

var (
	// ErrNotFound indicates no lead exists with the given ID.
	ErrNotFound = errors.New("lead not found")

	// ErrInvalidEmail indicates a blank or malformed address.
	ErrInvalidEmail = errors.New("invalid email address")
)
