package suppression

import "errors"

var (
	// ErrNotFound indicates the address is not on the suppression list.
	ErrNotFound = errors.New("suppression entry not found")

	// ErrInvalidEmail indicates a blank or malformed address.
	ErrInvalidEmail = errors.New("invalid email address")
)
