package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "beroepsbelg/internal/bookings/errors"
	"beroepsbelg/internal/bookings/repository"
	"beroepsbelg/internal/bookings/validator"
	"beroepsbelg/pkg/config"
	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetAll(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id int64) error
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	applyDefaults(booking)
	sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"tour_id", booking.TourID,
		"tour_datetime", booking.TourDatetime,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, MapError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error) {
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	booking, err := repository.Mutate(ctx, s.repo, id, s.cfg.OptimisticRetries, func(b *model.Booking) error {
		if b.Status == model.BookingCompleted {
			return bookingserrors.ErrCompleted
		}
		mergeBookingUpdates(b, updates)
		sanitize(b)
		return s.validate(b)
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		}
		return nil, MapError(err, id, "Failed to update booking")
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id, "version", booking.Version)
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return MapError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// MapError turns repository errors into API errors. AppErrors pass through.
func MapError(err error, id int64, message string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrCompleted):
		return apperrors.Conflict("Booking is completed and can no longer be changed")
	case errors.Is(err, bookingserrors.ErrVersionConflict):
		return apperrors.Conflict("Booking was modified by another request, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(message)
	default:
		return apperrors.Internal(message, err)
	}
}

func applyDefaults(b *model.Booking) {
	if b.Status == "" {
		b.Status = model.BookingQuotePending
	}
	if b.SelectedGuides == nil {
		b.SelectedGuides = []model.SelectedGuide{}
	}
	if b.Invitees == nil {
		b.Invitees = []model.Invitee{}
	}
	b.TourDatetime = b.TourDatetime.UTC()
	b.SyncGuideFields()
}

func sanitize(b *model.Booking) {
	for i := range b.Invitees {
		inv := &b.Invitees[i]
		inv.Name = sanitizer.NormalizeName(inv.Name)
		inv.Email = sanitizer.NormalizeEmail(inv.Email)
		if inv.Phone != "" {
			if normalized := sanitizer.NormalizePhone(inv.Phone); normalized != "" {
				inv.Phone = normalized
			}
		}
	}
	b.Language = sanitizer.NormalizeLanguage(b.Language)
	b.Notes = sanitizer.NormalizeNotes(b.Notes)
}

func mergeBookingUpdates(b *model.Booking, updates *model.BookingUpdate) {
	if updates.TourID != nil {
		b.TourID = *updates.TourID
	}
	if updates.TourDatetime != nil {
		b.TourDatetime = updates.TourDatetime.UTC()
	}
	if updates.TourEnd != nil {
		b.TourEnd = updates.TourEnd.Ptr()
	}
	if updates.Invitees != nil {
		b.Invitees = *updates.Invitees
	}
	if updates.Status != "" {
		b.Status = updates.Status
	}
	if updates.Language != nil {
		b.Language = *updates.Language
	}
	if updates.Notes != nil {
		b.Notes = *updates.Notes
	}
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "id", booking.ID, "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
