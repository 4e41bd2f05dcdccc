// Package calendar renders bookings as iCalendar documents and Google Calendar links.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"beroepsbelg/pkg/brussels"
	"beroepsbelg/pkg/model"
)

const utcLayout = "20060102T150405Z"

// Event is the calendar view of a booking. Times are UTC instants.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Status      string
	Start       time.Time
	End         time.Time
	Stamp       time.Time
}

// FromBooking builds the calendar event for a booking. Bookings without a valid
// tour_end last the fallback duration.
func FromBooking(b *model.Booking, domain string, fallback time.Duration) Event {
	start := b.TourDatetime.UTC()
	end := b.End(fallback).UTC()

	stamp := b.UpdatedAt
	if stamp.IsZero() {
		stamp = b.CreatedAt
	}
	if stamp.IsZero() {
		stamp = start
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Tour %d on %s (Brussels time).", b.TourID, brussels.FormatLocal(start, "Monday 2 January 2006 at 15:04"))
	if b.Language != "" {
		fmt.Fprintf(&desc, "\nLanguage: %s", strings.ToUpper(b.Language))
	}
	if people := partySize(b.Invitees); people > 0 {
		fmt.Fprintf(&desc, "\nParty size: %d", people)
	}
	fmt.Fprintf(&desc, "\nBooking reference: %d", b.ID)

	return Event{
		UID:         "booking-" + strconv.FormatInt(b.ID, 10) + "@" + domain,
		Summary:     fmt.Sprintf("Beroepsbelg tour #%d", b.TourID),
		Description: desc.String(),
		Status:      eventStatus(b.Status),
		Start:       start,
		End:         end,
		Stamp:       stamp.UTC(),
	}
}

func partySize(invitees []model.Invitee) int {
	n := 0
	for _, inv := range invitees {
		if inv.NumberOfPeople > 0 {
			n += inv.NumberOfPeople
		} else {
			n++
		}
	}
	return n
}

func eventStatus(s model.BookingStatus) string {
	switch s {
	case model.BookingConfirmed, model.BookingCompleted:
		return "CONFIRMED"
	case model.BookingCancelled:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}
