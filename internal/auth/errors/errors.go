package errors

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")

	ErrMissingToken = errors.New("missing bearer token")

	ErrInvalidToken = errors.New("invalid bearer token")
)
