package errors

import "errors"

var (
	ErrBookingCancelled = errors.New("booking is cancelled")

	// ErrNotAssigned is returned when a guide uploads photos for a tour they do not hold.
	ErrNotAssigned = errors.New("guide is not assigned to this booking")

	ErrInvalidImage = errors.New("photo must be a JPEG, PNG, GIF, BMP or TIFF image")

	// ErrImageTooLarge is returned when the declared dimensions exceed the pixel limit.
	ErrImageTooLarge = errors.New("photo dimensions exceed the pixel limit")
)
