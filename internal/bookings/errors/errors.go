package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrVersionConflict means the booking changed between read and write.
	ErrVersionConflict = errors.New("booking was modified concurrently")

	ErrCompleted = errors.New("booking is completed")

	ErrInvalidTimeRange = errors.New("tour_end must be after tour_datetime")
)
