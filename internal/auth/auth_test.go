package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	autherrors "beroepsbelg/internal/auth/errors"
	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type mockProfileRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Profile, error)
}

func (m *mockProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, autherrors.ErrProfileNotFound
}

func profiles(list ...model.Profile) *mockProfileRepository {
	return &mockProfileRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Profile, error) {
			for i := range list {
				if list[i].ID == id {
					return &list[i], nil
				}
			}
			return nil, autherrors.ErrProfileNotFound
		},
	}
}

func signToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func int64Ptr(v int64) *int64 { return &v }

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "empty", header: "", wantErr: autherrors.ErrMissingToken},
		{name: "bearer", header: "Bearer abc.def", want: "abc.def"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "basic scheme", header: "Basic Zm9v", wantErr: autherrors.ErrInvalidToken},
		{name: "no token", header: "Bearer ", wantErr: autherrors.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	repo := profiles(
		model.Profile{ID: "admin-1", IsAdmin: true},
		model.Profile{ID: "guide-12", GuideID: int64Ptr(12)},
	)
	a := NewAuthenticator(testSecret, repo, logger.Discard())

	t.Run("admin", func(t *testing.T) {
		p, err := a.Authenticate(context.Background(), signToken(t, testSecret, "admin-1", time.Hour))
		require.NoError(t, err)
		assert.True(t, p.IsAdmin)
		assert.Nil(t, p.GuideID)
	})

	t.Run("guide", func(t *testing.T) {
		p, err := a.Authenticate(context.Background(), signToken(t, testSecret, "guide-12", time.Hour))
		require.NoError(t, err)
		assert.False(t, p.IsAdmin)
		assert.True(t, p.IsGuide(12))
		assert.False(t, p.IsGuide(13))
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := a.Authenticate(context.Background(), signToken(t, "another-secret-another-secret-xx", "admin-1", time.Hour))
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := a.Authenticate(context.Background(), signToken(t, testSecret, "admin-1", -time.Minute))
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := a.Authenticate(context.Background(), signToken(t, testSecret, "ghost", time.Hour))
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "admin-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = a.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("repository failure", func(t *testing.T) {
		failing := &mockProfileRepository{
			findByIDFunc: func(context.Context, string) (*model.Profile, error) {
				return nil, errors.New("connection reset")
			},
		}
		_, err := NewAuthenticator(testSecret, failing, logger.Discard()).
			Authenticate(context.Background(), signToken(t, testSecret, "admin-1", time.Hour))
		require.Error(t, err)
		assert.NotErrorIs(t, err, autherrors.ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	repo := profiles(model.Profile{ID: "admin-1", IsAdmin: true})
	a := NewAuthenticator(testSecret, repo, logger.Discard())

	var seen *Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(a, logger.Discard())(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantAdmin  bool
	}{
		{name: "anonymous", wantStatus: http.StatusOK},
		{name: "valid admin", header: "Bearer " + signToken(t, testSecret, "admin-1", time.Hour), wantStatus: http.StatusOK, wantAdmin: true},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusForbidden},
		{name: "wrong scheme", header: "Token abc", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantAdmin {
				require.NotNil(t, seen)
				assert.True(t, seen.IsAdmin)
			}
		})
	}
}

func TestGuards(t *testing.T) {
	admin := WithPrincipal(context.Background(), &Principal{ProfileID: "a", IsAdmin: true})
	guide := WithPrincipal(context.Background(), &Principal{ProfileID: "g", GuideID: int64Ptr(12)})
	anonymous := context.Background()

	assert.NoError(t, RequireAdmin(admin))
	assertForbidden(t, RequireAdmin(guide))
	assertForbidden(t, RequireAdmin(anonymous))

	assert.NoError(t, RequireGuideOrAdmin(admin, 12))
	assert.NoError(t, RequireGuideOrAdmin(guide, 12))
	assertForbidden(t, RequireGuideOrAdmin(guide, 7))
	assertForbidden(t, RequireGuideOrAdmin(anonymous, 12))

	assert.NoError(t, RequireAuthenticated(guide))
	assertForbidden(t, RequireAuthenticated(anonymous))
}

func TestPrincipalKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", PrincipalKey(req))

	req = req.WithContext(WithPrincipal(req.Context(), &Principal{ProfileID: "p-1"}))
	assert.Equal(t, "profile:p-1", PrincipalKey(req))
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErr.StatusCode())
}
