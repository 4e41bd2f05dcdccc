package model

import "time"

type EventType string

const (
	EventGuideOffered      EventType = "guide.offered"
	EventGuideAccepted     EventType = "guide.accepted"
	EventGuideDeclined     EventType = "guide.declined"
	EventGuideCancelled    EventType = "guide.cancelled"
	EventTourCompleted     EventType = "tour.completed"
	EventTourPhotoUploaded EventType = "tour.photo_uploaded"
)

// Event is the payload published for every booking state change and delivered to webhooks.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	BookingID  int64          `json:"booking_id"`
	GuideID    *int64         `json:"guide_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Booking    *Booking       `json:"booking,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}
