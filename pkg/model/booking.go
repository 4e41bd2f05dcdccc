package model

import (
	"time"

	"beroepsbelg/pkg/brussels"
)

type BookingStatus string

const (
	BookingQuotePending             BookingStatus = "quote_pending"
	BookingPendingGuideConfirmation BookingStatus = "pending_guide_confirmation"
	BookingConfirmed                BookingStatus = "confirmed"
	BookingCompleted                BookingStatus = "completed"
	BookingCancelled                BookingStatus = "cancelled"
)

// Closed reports whether the booking no longer accepts guide changes.
func (s BookingStatus) Closed() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type Invitee struct {
	Name           string  `json:"name" bson:"name" validate:"required,min=1,max=120"`
	Email          string  `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone          string  `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	NumberOfPeople int     `json:"number_of_people" bson:"number_of_people" validate:"omitempty,min=1,max=500"`
	AmountPaid     float64 `json:"amount_paid,omitempty" bson:"amount_paid,omitempty" validate:"omitempty,min=0"`
	PaymentStatus  string  `json:"payment_status,omitempty" bson:"payment_status,omitempty" validate:"omitempty,oneof=unpaid pending paid refunded"`
}

type Booking struct {
	ID               int64           `json:"id" bson:"_id"`
	TourID           int64           `json:"tour_id" bson:"tour_id" validate:"required,gt=0"`
	GuideID          *int64          `json:"guide_id" bson:"guide_id"`
	GuideIDs         []int64         `json:"guide_ids" bson:"guide_ids"`
	SelectedGuides   []SelectedGuide `json:"selectedGuides" bson:"selectedGuides"`
	Status           BookingStatus   `json:"status" bson:"status" validate:"required,oneof=quote_pending pending_guide_confirmation confirmed completed cancelled"`
	TourDatetime     time.Time       `json:"tour_datetime" bson:"tour_datetime" validate:"required"`
	TourEnd          *time.Time      `json:"tour_end,omitempty" bson:"tour_end,omitempty"`
	Invitees         []Invitee       `json:"invitees" bson:"invitees" validate:"omitempty,max=50,dive"`
	PicturesUploaded int             `json:"picturesUploaded" bson:"picturesUploaded"`
	Language         string          `json:"language,omitempty" bson:"language,omitempty" validate:"omitempty,oneof=nl fr en de es it"`
	Notes            string          `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	Version          int64           `json:"version" bson:"version"`
	CreatedAt        time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" bson:"updated_at"`
}

// BookingInput is the body of a create request. Times without an offset are
// Brussels wall-clock times.
type BookingInput struct {
	TourID         FlexibleID      `json:"tour_id"`
	TourDatetime   brussels.Time   `json:"tour_datetime"`
	TourEnd        *brussels.Time  `json:"tour_end,omitempty"`
	Invitees       []Invitee       `json:"invitees"`
	SelectedGuides []SelectedGuide `json:"selectedGuides"`
	Language       string          `json:"language,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// Booking returns the new booking described by the input. Guide fields start
// from the given selectedGuides with every entry available.
func (in *BookingInput) Booking() *Booking {
	guides := make([]SelectedGuide, 0, len(in.SelectedGuides))
	for _, sg := range in.SelectedGuides {
		guides = append(guides, SelectedGuide{ID: sg.ID})
	}
	b := &Booking{
		TourID:         int64(in.TourID),
		TourDatetime:   in.TourDatetime.UTC(),
		TourEnd:        in.TourEnd.Ptr(),
		Invitees:       in.Invitees,
		SelectedGuides: guides,
		Language:       in.Language,
		Notes:          in.Notes,
	}
	if b.Invitees == nil {
		b.Invitees = []Invitee{}
	}
	b.SyncGuideFields()
	return b
}

type BookingUpdate struct {
	TourID       *int64         `json:"tour_id,omitempty" validate:"omitempty,gt=0"`
	TourDatetime *brussels.Time `json:"tour_datetime,omitempty"`
	TourEnd      *brussels.Time `json:"tour_end,omitempty"`
	Invitees     *[]Invitee     `json:"invitees,omitempty" validate:"omitempty,max=50,dive"`
	Status       BookingStatus  `json:"status,omitempty" validate:"omitempty,oneof=quote_pending pending_guide_confirmation confirmed cancelled"`
	Language     *string        `json:"language,omitempty" validate:"omitempty,oneof=nl fr en de es it"`
	Notes        *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// End returns the tour end, falling back to start plus the given duration.
func (b *Booking) End(fallback time.Duration) time.Time {
	if b.TourEnd != nil && b.TourEnd.After(b.TourDatetime) {
		return *b.TourEnd
	}
	return b.TourDatetime.Add(fallback)
}

// FindGuide returns the index of the selectedGuides entry for guideID, or -1.
func (b *Booking) FindGuide(guideID int64) int {
	for i := range b.SelectedGuides {
		if b.SelectedGuides[i].ID == guideID {
			return i
		}
	}
	return -1
}

// AcceptedGuide returns the id of the guide holding the accepted entry, if any.
func (b *Booking) AcceptedGuide() (int64, bool) {
	for _, sg := range b.SelectedGuides {
		if sg.Status == GuideAccepted {
			return sg.ID, true
		}
	}
	return 0, false
}

// SyncGuideFields recomputes guide_ids and guide_id from selectedGuides.
// guide_id is the accepted guide when there is one. Otherwise it is the single
// offered guide of a single-guide booking, and nil in every other case.
func (b *Booking) SyncGuideFields() {
	ids := make([]int64, 0, len(b.SelectedGuides))
	var offered []int64
	for _, sg := range b.SelectedGuides {
		switch sg.Status {
		case GuideOffered:
			ids = append(ids, sg.ID)
			offered = append(offered, sg.ID)
		case GuideAccepted:
			ids = append(ids, sg.ID)
		}
	}
	b.GuideIDs = ids

	if id, ok := b.AcceptedGuide(); ok {
		b.GuideID = &id
		return
	}
	if len(b.SelectedGuides) == 1 && len(offered) == 1 {
		id := offered[0]
		b.GuideID = &id
		return
	}
	b.GuideID = nil
}

// Normalize folds a stored guide_id into selectedGuides and then recomputes the
// derived guide fields. A guide_id whose entry is missing or has no status
// counts as the assigned guide: the entry becomes accepted on a confirmed or
// completed booking without an accepted guide, and offered otherwise.
func (b *Booking) Normalize() {
	if b.SelectedGuides == nil {
		b.SelectedGuides = []SelectedGuide{}
	}
	if b.GuideID != nil && *b.GuideID > 0 {
		legacyID := *b.GuideID
		i := b.FindGuide(legacyID)
		if i < 0 {
			b.SelectedGuides = append(b.SelectedGuides, SelectedGuide{ID: legacyID})
			i = len(b.SelectedGuides) - 1
		}
		if b.SelectedGuides[i].Status == GuideAvailable {
			_, hasAccepted := b.AcceptedGuide()
			if !hasAccepted && (b.Status == BookingConfirmed || b.Status == BookingCompleted) {
				b.SelectedGuides[i].Status = GuideAccepted
			} else {
				b.SelectedGuides[i].Status = GuideOffered
			}
		}
	}
	b.SyncGuideFields()
}

// IsAssigned reports whether guide_id currently points at guideID.
func (b *Booking) IsAssigned(guideID int64) bool {
	return b.GuideID != nil && *b.GuideID == guideID
}
