package handler

import (
	"context"
	"net/http"
	"time"

	"beroepsbelg/internal/calendar"
	"beroepsbelg/pkg/brussels"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type calendarLink struct {
	GoogleURL string    `json:"google_url"`
	ICSURL    string    `json:"ics_url"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Timezone  string    `json:"timezone"`
}

type BookingFinder interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
}

type Options struct {
	Domain          string
	Location        string
	DefaultDuration time.Duration
}

// CalendarHandler serves the add-to-calendar data of the booking confirmation page.
type CalendarHandler struct {
	bookings BookingFinder
	opts     Options
	log      *logger.Logger
}

func NewCalendarHandler(bookings BookingFinder, opts Options, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		bookings: bookings,
		opts:     opts,
		log:      log,
	}
}

func (h *CalendarHandler) event(r *http.Request, ps httprouter.Params) (calendar.Event, error) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		return calendar.Event{}, err
	}
	booking, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		return calendar.Event{}, err
	}
	evt := calendar.FromBooking(booking, h.opts.Domain, h.opts.DefaultDuration)
	evt.Location = h.opts.Location
	return evt, nil
}

func (h *CalendarHandler) ICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	evt, err := h.event(r, ps)
	if err != nil {
		h.writeError(w, "ICS", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="booking-`+ps.ByName("id")+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if err := evt.WriteICS(w); err != nil {
		h.log.Error("failed to write calendar response", "handler", "ICS", "operation", "WriteICS", "error", err)
	}
}

func (h *CalendarHandler) GoogleLink(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	evt, err := h.event(r, ps)
	if err != nil {
		h.writeError(w, "GoogleLink", err)
		return
	}

	if err := httputil.WriteSuccess(w, calendarLink{
		GoogleURL: evt.GoogleLink(),
		ICSURL:    "/api/v1/bookings/id/" + ps.ByName("id") + "/calendar.ics",
		StartsAt:  evt.Start,
		EndsAt:    evt.End,
		Timezone:  brussels.Zone,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GoogleLink", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CalendarHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings/id/:id/calendar.ics", h.ICS)
	router.GET("/api/v1/bookings/id/:id/calendar-link", h.GoogleLink)
}
