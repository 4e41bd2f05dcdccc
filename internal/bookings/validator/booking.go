package validator

import (
	"errors"
	"fmt"
	"strings"

	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("unique_guides", validateUniqueGuides); err != nil {
		log.Fatal("Failed to register 'unique_guides' validator",
			"error", err,
		)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateUniqueGuides rejects selectedGuides lists that name a guide twice.
func validateUniqueGuides(fl validator.FieldLevel) bool {
	guides, ok := fl.Field().Interface().([]model.SelectedGuide)
	if !ok {
		return false
	}
	seen := make(map[int64]struct{}, len(guides))
	for _, sg := range guides {
		if sg.ID <= 0 {
			return false
		}
		if _, dup := seen[sg.ID]; dup {
			return false
		}
		seen[sg.ID] = struct{}{}
	}
	return true
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if booking.TourDatetime.IsZero() {
		return ValidationErrors{
			ValidationError{
				Field:   "TourDatetime",
				Message: "TourDatetime is required",
			},
		}
	}

	if err := v.validate.Var(booking.SelectedGuides, "unique_guides"); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "SelectedGuides",
				Message: "selectedGuides must list each guide once with a positive id",
			},
		}
	}

	if booking.TourEnd != nil && !booking.TourEnd.After(booking.TourDatetime) {
		return ValidationErrors{
			ValidationError{
				Field:   "TourEnd",
				Message: "tour_end must be after tour_datetime",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.TourDatetime != nil && update.TourEnd != nil && !update.TourEnd.After(update.TourDatetime.Time) {
		return ValidationErrors{
			ValidationError{
				Field:   "TourEnd",
				Message: "tour_end must be after tour_datetime",
			},
		}
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +32470123456)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
