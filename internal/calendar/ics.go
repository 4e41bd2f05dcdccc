package calendar

import (
	"io"
	"strings"

	ics "github.com/arran4/golang-ical"
)

const prodID = "-//Beroepsbelg//Bookings//EN"

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "")

// Calendar returns the event wrapped in a single-event VCALENDAR.
func (e Event) Calendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)

	ev := cal.AddEvent(e.UID)
	ev.SetDtStampTime(e.Stamp)
	ev.SetStartAt(e.Start)
	ev.SetEndAt(e.End)
	ev.SetSummary(lineBreaks.Replace(e.Summary))
	if e.Description != "" {
		ev.SetDescription(lineBreaks.Replace(e.Description))
	}
	if e.Location != "" {
		ev.SetLocation(lineBreaks.Replace(e.Location))
	}
	if e.Status != "" {
		ev.SetStatus(ics.ObjectStatus(e.Status))
	}
	return cal
}

// ICS returns the event as a single-event VCALENDAR document.
func (e Event) ICS() string {
	return e.Calendar().Serialize(ics.WithNewLineWindows)
}

func (e Event) WriteICS(w io.Writer) error {
	return e.Calendar().SerializeTo(w, ics.WithNewLineWindows)
}
