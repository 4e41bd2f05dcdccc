package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	assignmentshandler "beroepsbelg/internal/assignments/handler"
	assignmentsservice "beroepsbelg/internal/assignments/service"
	"beroepsbelg/internal/auth"
	autherrors "beroepsbelg/internal/auth/errors"
	bookingshandler "beroepsbelg/internal/bookings/handler"
	bookingsservice "beroepsbelg/internal/bookings/service"
	"beroepsbelg/internal/bookings/validator"
	calendarhandler "beroepsbelg/internal/calendar/handler"
	"beroepsbelg/internal/testutil"
	"beroepsbelg/pkg/client"
	"beroepsbelg/pkg/config"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/middleware"
	"beroepsbelg/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret = "0123456789abcdef0123456789abcdef"
	offerURL  = "https://hooks.example.be/guide-offer"
)

type profileStore map[string]model.Profile

func (s profileStore) FindByID(_ context.Context, id string) (*model.Profile, error) {
	p, ok := s[id]
	if !ok {
		return nil, autherrors.ErrProfileNotFound
	}
	return &p, nil
}

func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func int64Ptr(v int64) *int64 { return &v }

type server struct {
	client    *testutil.Client
	bookings  *testutil.BookingStore
	notifier  *testutil.Notifier
	publisher *testutil.Publisher
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg := &config.Config{
		Port:                 "8080",
		AllowedOrigins:       []string{"https://beroepsbelg.be"},
		RateLimitRequests:    100,
		RateLimitWindow:      time.Minute,
		RequestTimeout:       5 * time.Second,
		IdempotencyTTL:       time.Hour,
		MaxRequestSize:       1 << 20,
		OptimisticRetries:    3,
		WebhookGuideOfferURL: offerURL,
		PublicBaseURL:        "https://app.beroepsbelg.be",
		CalendarDomain:       "beroepsbelg.be",
		CalendarLocation:     "Brussels, Belgium",
		DefaultTourDuration:  2 * time.Hour,
		Log:                  logger.Discard(),
		Client:               client.NewClient(),
	}

	tour := model.Booking{
		ID:             551,
		TourID:         9,
		Status:         model.BookingQuotePending,
		TourDatetime:   time.Date(2025, 7, 15, 8, 0, 0, 0, time.UTC),
		SelectedGuides: []model.SelectedGuide{},
		Invitees:       []model.Invitee{},
	}
	s := &server{
		bookings:  testutil.NewBookingStore(tour),
		notifier:  &testutil.Notifier{},
		publisher: &testutil.Publisher{},
	}
	guides := testutil.NewGuideStore(
		model.Guide{ID: 3, Name: "Anouk Peeters", Email: "anouk@example.be"},
		model.Guide{ID: 7, Name: "Jonas Maes", Email: "jonas@example.be"},
	)

	profiles := profileStore{
		"admin":   {ID: "admin", IsAdmin: true},
		"guide-3": {ID: "guide-3", GuideID: int64Ptr(3)},
		"guide-7": {ID: "guide-7", GuideID: int64Ptr(7)},
	}
	authenticator := auth.NewAuthenticator(jwtSecret, profiles, cfg.Log)

	bookingService := bookingsservice.NewBookingService(s.bookings, validator.NewBookingValidator(cfg.Log), cfg)
	assignmentService := assignmentsservice.NewAssignmentService(s.bookings, guides, s.notifier, nil, s.publisher, cfg)

	opts := Options{
		Authenticate: auth.Middleware(authenticator, cfg.Log),
		RateLimitKey: auth.PrincipalKey,
	}
	application := NewApplication(cfg)
	application.SetApp(opts,
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		assignmentshandler.NewAssignmentHandler(assignmentService, cfg.Log),
		calendarhandler.NewCalendarHandler(bookingService, calendarhandler.Options{
			Domain:          cfg.CalendarDomain,
			Location:        cfg.CalendarLocation,
			DefaultDuration: cfg.DefaultTourDuration,
		}, cfg.Log),
	)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		application.stopWorkers()
	})

	s.client = testutil.NewClient(srv.URL)
	return s
}

func TestHealthEndpoints(t *testing.T) {
	s := newServer(t)

	resp := s.client.GET(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.client.GET(t, "/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	require.NoError(t, resp.DecodeJSON(&health))
	assert.Equal(t, "ready", health.Status)
}

func TestReady_FailingDependency(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"mongo": func(context.Context) error { return errors.New("no reachable servers") },
		"redis": func(context.Context) error { return nil },
	}, logger.Discard())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mongo":"error"`)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

func TestOfferAndAccept(t *testing.T) {
	s := newServer(t)
	admin := s.client.WithToken(token(t, "admin"))

	resp := s.client.POST(t, "/api/v1/bookings/id/551/offers", map[string]any{"guide_ids": []int{3, 7}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "anonymous callers cannot offer")

	resp = admin.POST(t, "/api/v1/bookings/id/551/offers", map[string]any{"guide_ids": []any{3, "7"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var offered assignmentsservice.OfferResult
	resp.Data(t, &offered)
	assert.Equal(t, []int64{3, 7}, offered.Notified)
	assert.Len(t, s.notifier.Calls(), 2)

	resp = s.client.WithToken(token(t, "guide-3")).POST(t, "/api/v1/bookings/id/551/guides/7/accept", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "a guide cannot answer for another guide")

	resp = s.client.WithToken(token(t, "guide-7")).POST(t, "/api/v1/bookings/id/551/guides/7/accept", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var accepted model.Booking
	resp.Data(t, &accepted)
	assert.Equal(t, model.BookingConfirmed, accepted.Status)
	require.NotNil(t, accepted.GuideID)
	assert.Equal(t, int64(7), *accepted.GuideID)

	resp = s.client.WithToken(token(t, "guide-3")).POST(t, "/api/v1/bookings/id/551/guides/3/accept", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assert.Equal(t, model.BookingConfirmed, s.bookings.Get(551).Status)
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newServer(t)

	resp := s.client.WithToken("not-a-jwt").GET(t, "/api/v1/bookings/id/551")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIdempotentOfferReplay(t *testing.T) {
	s := newServer(t)
	admin := s.client.WithToken(token(t, "admin"))
	headers := map[string]string{middleware.HeaderIdempotencyKey: "offer-551-1"}

	first := admin.Do(t, http.MethodPost, "/api/v1/bookings/id/551/offers", map[string]any{"guide_ids": []int{3}}, headers)
	require.Equal(t, http.StatusOK, first.StatusCode, string(first.Body))

	second := admin.Do(t, http.MethodPost, "/api/v1/bookings/id/551/offers", map[string]any{"guide_ids": []int{3}}, headers)
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, string(first.Body), string(second.Body))
	assert.Len(t, s.notifier.Calls(), 1)
}

func TestCalendarIsPublic(t *testing.T) {
	s := newServer(t)

	resp := s.client.GET(t, "/api/v1/bookings/id/551/calendar.ics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	assert.Contains(t, string(resp.Body), "UID:booking-551@beroepsbelg.be")
}

func TestRejectsUnsupportedContentType(t *testing.T) {
	s := newServer(t)
	admin := s.client.WithToken(token(t, "admin"))

	resp := admin.Do(t, http.MethodPost, "/api/v1/bookings/id/551/offers", []byte("guide_ids=3"),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t)

	resp := s.client.Do(t, http.MethodOptions, "/api/v1/bookings/id/551/offers", nil, map[string]string{
		"Origin":                         "https://beroepsbelg.be",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "authorization,content-type",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://beroepsbelg.be", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = s.client.Do(t, http.MethodOptions, "/api/v1/bookings/id/551/offers", nil, map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
