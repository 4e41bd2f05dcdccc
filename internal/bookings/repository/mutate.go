package repository

import (
	"context"
	"errors"

	bookingserrors "beroepsbelg/internal/bookings/errors"
	"beroepsbelg/pkg/model"
)

// MutateFunc changes a freshly loaded booking in place. Returning an error
// aborts the write.
type MutateFunc func(booking *model.Booking) error

// Mutate loads the booking, applies fn and writes it back with a version check.
// A lost race reloads and reapplies fn, up to attempts times, after which
// ErrVersionConflict is returned.
func Mutate(ctx context.Context, repo BookingRepository, id int64, attempts int, fn MutateFunc) (*model.Booking, error) {
	if attempts < 1 {
		attempts = 1
	}

	for range attempts {
		booking, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(booking); err != nil {
			return nil, err
		}
		booking.SyncGuideFields()

		err = repo.Update(ctx, booking)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, bookingserrors.ErrVersionConflict) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, bookingserrors.ErrVersionConflict
}
