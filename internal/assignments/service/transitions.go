package service

import (
	"time"

	assignmentserrors "beroepsbelg/internal/assignments/errors"
	"beroepsbelg/pkg/model"
)

type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAccept, ActionDecline, ActionCancel:
		return a, nil
	default:
		return "", assignmentserrors.ErrUnknownAction
	}
}

// EventType is the event published after the action succeeds.
func (a Action) EventType() model.EventType {
	switch a {
	case ActionAccept:
		return model.EventGuideAccepted
	case ActionDecline:
		return model.EventGuideDeclined
	default:
		return model.EventGuideCancelled
	}
}

// offer marks guideID as offered, adding an entry when the guide is new to the
// booking. Re-offering stamps a new offeredAt.
func offer(b *model.Booking, guideID int64, now time.Time) error {
	if b.Status.Closed() {
		return assignmentserrors.ErrBookingClosed
	}

	i := b.FindGuide(guideID)
	if i < 0 {
		b.SelectedGuides = append(b.SelectedGuides, model.SelectedGuide{ID: guideID})
		i = len(b.SelectedGuides) - 1
	}
	if b.SelectedGuides[i].Status == model.GuideAccepted {
		return assignmentserrors.ErrGuideAlreadyAccepted
	}

	b.SelectedGuides[i].Status = model.GuideOffered
	b.SelectedGuides[i].OfferedAt = &now
	b.SelectedGuides[i].RespondedAt = nil

	if b.Status != model.BookingConfirmed {
		b.Status = model.BookingPendingGuideConfirmation
	}
	b.SyncGuideFields()
	return nil
}

func accept(b *model.Booking, guideID int64, now time.Time) error {
	i, err := locate(b, guideID)
	if err != nil {
		return err
	}
	if other, ok := b.AcceptedGuide(); ok && other != guideID {
		return assignmentserrors.ErrAnotherGuideAccepted
	}

	b.SelectedGuides[i].Status = model.GuideAccepted
	b.SelectedGuides[i].RespondedAt = &now
	b.Status = model.BookingConfirmed
	b.SyncGuideFields()
	return nil
}

// decline records a refusal. When the guide held the booking it goes back to
// waiting for a guide.
func decline(b *model.Booking, guideID int64, now time.Time) error {
	i, err := locate(b, guideID)
	if err != nil {
		return err
	}

	held := b.SelectedGuides[i].Status == model.GuideAccepted
	b.SelectedGuides[i].Status = model.GuideDeclined
	b.SelectedGuides[i].RespondedAt = &now
	b.SyncGuideFields()
	if held {
		b.Status = model.BookingPendingGuideConfirmation
	}
	return nil
}

// cancel withdraws the guide currently holding the booking. Nothing changes
// when guideID is not that guide.
func cancel(b *model.Booking, guideID int64, now time.Time) error {
	i, err := locate(b, guideID)
	if err != nil {
		return err
	}
	if !b.IsAssigned(guideID) {
		return assignmentserrors.ErrNotAssigned
	}

	b.SelectedGuides[i].Status = model.GuideDeclined
	b.SelectedGuides[i].RespondedAt = &now
	b.SyncGuideFields()
	b.GuideID = nil
	b.Status = model.BookingPendingGuideConfirmation
	return nil
}

func apply(b *model.Booking, action Action, guideID int64, now time.Time) error {
	switch action {
	case ActionAccept:
		return accept(b, guideID, now)
	case ActionDecline:
		return decline(b, guideID, now)
	case ActionCancel:
		return cancel(b, guideID, now)
	default:
		return assignmentserrors.ErrUnknownAction
	}
}

func locate(b *model.Booking, guideID int64) (int, error) {
	if b.Status.Closed() {
		return -1, assignmentserrors.ErrBookingClosed
	}
	i := b.FindGuide(guideID)
	if i < 0 {
		return -1, assignmentserrors.ErrGuideNotOnBooking
	}
	return i, nil
}
