package calendar

import (
	"net/url"

	"beroepsbelg/pkg/brussels"
)

const googleTemplateURL = "https://calendar.google.com/calendar/render"

// GoogleLink returns a Google Calendar "add event" link for the event.
func (e Event) GoogleLink() string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", e.Summary)
	q.Set("dates", formatUTC(e.Start)+"/"+formatUTC(e.End))
	if e.Description != "" {
		q.Set("details", e.Description)
	}
	if e.Location != "" {
		q.Set("location", e.Location)
	}
	q.Set("ctz", brussels.Zone)
	return googleTemplateURL + "?" + q.Encode()
}
