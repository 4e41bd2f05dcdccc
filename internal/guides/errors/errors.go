package errors

import "errors"

var (
	ErrNotFound = errors.New("guide not found")

	ErrDuplicateEmail = errors.New("a guide with this email already exists")
)
