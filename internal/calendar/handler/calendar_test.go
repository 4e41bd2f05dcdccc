package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finderFunc func(ctx context.Context, id int64) (*model.Booking, error)

func (f finderFunc) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return f(ctx, id)
}

func newRouter() *httprouter.Router {
	finder := finderFunc(func(_ context.Context, id int64) (*model.Booking, error) {
		if id != 551 {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return &model.Booking{
			ID:           551,
			TourID:       9,
			Status:       model.BookingConfirmed,
			TourDatetime: time.Date(2025, 12, 20, 13, 0, 0, 0, time.UTC),
		}, nil
	})

	router := httprouter.New()
	NewCalendarHandler(finder, Options{
		Domain:          "beroepsbelg.be",
		Location:        "Brussels, Belgium",
		DefaultDuration: 2 * time.Hour,
	}, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestICS(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/551/calendar.ics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "booking-551.ics")

	body := w.Body.String()
	assert.Contains(t, body, "DTSTART:20251220T130000Z\r\n")
	assert.Contains(t, body, "DTEND:20251220T150000Z\r\n")
	assert.Contains(t, body, "LOCATION:Brussels\\, Belgium\r\n")
}

func TestGoogleLink(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/551/calendar-link", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ctz=Europe%2FBrussels")
	assert.Contains(t, body, `"ics_url":"/api/v1/bookings/id/551/calendar.ics"`)
}

func TestCalendar_Errors(t *testing.T) {
	router := newRouter()

	for path, want := range map[string]int{
		"/api/v1/bookings/id/404/calendar.ics":  http.StatusNotFound,
		"/api/v1/bookings/id/abc/calendar-link": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"), path)
	}
}
