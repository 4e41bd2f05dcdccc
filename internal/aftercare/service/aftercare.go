package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"

	aftercareerrors "beroepsbelg/internal/aftercare/errors"
	bookingserrors "beroepsbelg/internal/bookings/errors"
	bookingsrepo "beroepsbelg/internal/bookings/repository"
	bookingsservice "beroepsbelg/internal/bookings/service"
	guidesrepo "beroepsbelg/internal/guides/repository"
	"beroepsbelg/pkg/config"
	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/events"
	"beroepsbelg/pkg/model"

	"github.com/disintegration/imaging"
)

// errAlreadyCompleted stops a completion write when the booking is already completed.
var errAlreadyCompleted = errors.New("already completed")

type PhotoStore interface {
	Save(bookingID int64, img image.Image) (string, error)
	Remove(path string) error
}

// PhotoResult describes a stored photo.
type PhotoResult struct {
	BookingID        int64  `json:"booking_id"`
	Path             string `json:"path"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	PicturesUploaded int    `json:"picturesUploaded"`
}

type AftercareService interface {
	Complete(ctx context.Context, bookingID int64) (*model.Booking, error)
	// UploadPhoto stores a photo for a booking. uploader is the guide sending it,
	// or nil for admins.
	UploadPhoto(ctx context.Context, bookingID int64, uploader *int64, photo io.Reader) (*PhotoResult, error)
}

type aftercareService struct {
	bookings  bookingsrepo.BookingRepository
	guides    guidesrepo.GuideRepository
	photos    PhotoStore
	publisher events.Publisher
	cfg       *config.Config
}

func NewAftercareService(
	bookings bookingsrepo.BookingRepository,
	guides guidesrepo.GuideRepository,
	photos PhotoStore,
	publisher events.Publisher,
	cfg *config.Config,
) AftercareService {
	return &aftercareService{
		bookings:  bookings,
		guides:    guides,
		photos:    photos,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *aftercareService) Complete(ctx context.Context, bookingID int64) (*model.Booking, error) {
	updated, err := bookingsrepo.Mutate(ctx, s.bookings, bookingID, s.cfg.OptimisticRetries, func(b *model.Booking) error {
		switch b.Status {
		case model.BookingCompleted:
			return errAlreadyCompleted
		case model.BookingCancelled:
			return aftercareerrors.ErrBookingCancelled
		}
		b.Status = model.BookingCompleted
		return nil
	})
	if errors.Is(err, errAlreadyCompleted) {
		booking, err := s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return nil, mapError(err, bookingID)
		}
		return booking, nil
	}
	if err != nil {
		return nil, mapError(err, bookingID)
	}

	if id, ok := updated.AcceptedGuide(); ok {
		if err := s.guides.IncrementCompletedTours(ctx, id); err != nil {
			s.cfg.Log.Warn("Failed to count completed tour",
				"booking_id", bookingID,
				"guide_id", id,
				"error", err,
			)
		}
	}

	evt := events.NewEvent(model.EventTourCompleted, updated, updated.GuideID, nil)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "event_type", evt.Type, "booking_id", bookingID, "error", err)
	}

	s.cfg.Log.Info("Tour completed", "booking_id", bookingID, "guide_id", updated.GuideID)
	return updated, nil
}

func (s *aftercareService) UploadPhoto(ctx context.Context, bookingID int64, uploader *int64, photo io.Reader) (*PhotoResult, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, mapError(err, bookingID)
	}
	if booking.Status == model.BookingCompleted {
		return nil, mapError(bookingserrors.ErrCompleted, bookingID)
	}
	if uploader != nil && !booking.IsAssigned(*uploader) {
		return nil, mapError(aftercareerrors.ErrNotAssigned, bookingID)
	}

	data, err := io.ReadAll(photo)
	if err != nil {
		return nil, mapError(aftercareerrors.ErrInvalidImage, bookingID)
	}
	// Header only: a small upload can still declare huge dimensions.
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, mapError(aftercareerrors.ErrInvalidImage, bookingID)
	}
	if limit := int64(s.cfg.PhotoMaxPixels); limit > 0 && int64(imgCfg.Width)*int64(imgCfg.Height) > limit {
		s.cfg.Log.Warn("Rejected oversized photo",
			"booking_id", bookingID,
			"width", imgCfg.Width,
			"height", imgCfg.Height,
		)
		return nil, mapError(aftercareerrors.ErrImageTooLarge, bookingID)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, mapError(aftercareerrors.ErrInvalidImage, bookingID)
	}
	if s.cfg.PhotoMaxWidth > 0 && img.Bounds().Dx() > s.cfg.PhotoMaxWidth {
		img = imaging.Resize(img, s.cfg.PhotoMaxWidth, 0, imaging.Lanczos)
	}

	path, err := s.photos.Save(bookingID, img)
	if err != nil {
		s.cfg.Log.Error("Failed to store photo", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to store photo", err)
	}

	updated, err := s.bookings.IncrementPictures(ctx, bookingID)
	if err != nil {
		if rmErr := s.photos.Remove(path); rmErr != nil {
			s.cfg.Log.Warn("Failed to remove rejected photo", "booking_id", bookingID, "path", path, "error", rmErr)
		}
		return nil, mapError(err, bookingID)
	}

	if updated.GuideID != nil {
		if err := s.guides.IncrementPhotos(ctx, *updated.GuideID); err != nil {
			s.cfg.Log.Warn("Failed to count guide photo",
				"booking_id", bookingID,
				"guide_id", *updated.GuideID,
				"error", err,
			)
		}
	}

	bounds := img.Bounds()
	result := &PhotoResult{
		BookingID:        bookingID,
		Path:             path,
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
		PicturesUploaded: updated.PicturesUploaded,
	}

	evt := events.NewEvent(model.EventTourPhotoUploaded, updated, updated.GuideID, map[string]any{
		"photo":             path,
		"pictures_uploaded": updated.PicturesUploaded,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "event_type", evt.Type, "booking_id", bookingID, "error", err)
	}

	s.cfg.Log.Info("Tour photo uploaded",
		"booking_id", bookingID,
		"path", path,
		"pictures_uploaded", updated.PicturesUploaded,
	)
	return result, nil
}

func mapError(err error, bookingID int64) error {
	switch {
	case errors.Is(err, aftercareerrors.ErrBookingCancelled):
		return apperrors.Conflict("Cancelled bookings cannot be completed")
	case errors.Is(err, bookingserrors.ErrCompleted):
		return apperrors.Conflict("Tour is completed, photo uploads are closed")
	case errors.Is(err, aftercareerrors.ErrNotAssigned):
		return apperrors.Forbidden(err.Error())
	case errors.Is(err, aftercareerrors.ErrInvalidImage):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, aftercareerrors.ErrImageTooLarge):
		return apperrors.TooLarge(err.Error())
	default:
		return bookingsservice.MapError(err, bookingID, "Failed to update booking")
	}
}
