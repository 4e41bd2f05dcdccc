package errors

import "errors"

var (
	ErrNoGuides = errors.New("at least one guide id is required")

	ErrGuideNotOnBooking = errors.New("guide is not on this booking")

	// ErrAnotherGuideAccepted means a different guide already holds the booking.
	ErrAnotherGuideAccepted = errors.New("another guide already accepted this booking")

	ErrGuideAlreadyAccepted = errors.New("guide already accepted this booking")

	// ErrNotAssigned means the guide asked to cancel a booking they do not hold.
	ErrNotAssigned = errors.New("guide is not assigned to this booking")

	ErrBookingClosed = errors.New("booking is completed or cancelled")

	ErrUnknownAction = errors.New("unknown response action")
)
